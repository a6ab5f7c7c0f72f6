package pathalg

import "strings"

// NormalizeArray collapses "." and ".." segments.
//
// Blank segments are dropped unless they are first or last, or keepBlanks is
// set. A trailing blank with nothing left in front of it is dropped as well:
// it would describe a separator after an empty path.
func NormalizeArray(parts []string, keepBlanks bool) []string {
	dirs := make([]string, 0, len(parts))
	var prev string
	havePrev := false
	last := len(parts) - 1

	for i, dir := range parts {
		if dir == "" && !keepBlanks {
			if i != 0 && i != last {
				continue
			}
			if i == last && i != 0 && len(dirs) == 0 {
				continue
			}
		}

		if dir == "." && havePrev {
			continue
		}

		if dir == ".." &&
			len(dirs) > 0 &&
			havePrev &&
			prev != ".." &&
			prev != "." &&
			(prev != "" || keepBlanks) {
			dirs = dirs[:len(dirs)-1]
			if len(dirs) > 0 {
				prev = dirs[len(dirs)-1]
			} else {
				prev, havePrev = "", false
			}
			continue
		}

		if havePrev && prev == "." {
			dirs = dirs[:len(dirs)-1]
		}
		dirs = append(dirs, dir)
		prev, havePrev = dir, true
	}
	return dirs
}

// Normalize splits p on "/" and joins the normalized segments back.
func Normalize(p string, keepBlanks bool) string {
	return strings.Join(NormalizeArray(strings.Split(p, "/"), keepBlanks), "/")
}

// Join concatenates parts with "/" and normalizes the result.
func Join(parts ...string) string {
	return Normalize(strings.Join(parts, "/"), false)
}

// Dirname returns everything before the last "/", or "." when there is none.
func Dirname(p string) string {
	i := strings.LastIndexByte(p, '/')
	if i <= 0 {
		if i == 0 {
			return "/"
		}
		return "."
	}
	return p[:i]
}

// Basename returns the final segment of p. A non-empty ext is trimmed when
// the segment ends with it.
func Basename(p, ext string) string {
	f := p[strings.LastIndexByte(p, '/')+1:]
	if ext != "" && strings.HasSuffix(f, ext) {
		f = f[:len(f)-len(ext)]
	}
	return f
}

// Extname returns the suffix of the final segment starting at its last ".",
// or "" when the segment has none.
func Extname(p string) string {
	base := Basename(p, "")
	i := strings.LastIndexByte(base, '.')
	if i < 0 {
		return ""
	}
	return base[i:]
}
