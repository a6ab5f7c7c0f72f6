package jshost

import (
	"github.com/dop251/goja"

	"github.com/wippyai/module-loader/module"
)

var recordKeys = []string{"id", "exports", "filename", "loaded", "parent", "children"}

// record is the script view of a module record.
type record struct {
	h     *Host
	m     *module.Module
	extra map[string]goja.Value
}

func (r *record) Get(key string) goja.Value {
	vm := r.h.vm
	switch key {
	case "id":
		return vm.ToValue(string(r.m.ID()))
	case "exports":
		return r.h.value(r.m.Exports())
	case "filename":
		return vm.ToValue(r.m.Filename())
	case "loaded":
		return vm.ToValue(r.m.State() == module.StateLoaded)
	case "parent":
		return r.h.moduleObject(r.m.Parent())
	case "children":
		kids := r.m.Children()
		items := make([]any, len(kids))
		for i, c := range kids {
			items[i] = r.h.moduleObject(c)
		}
		return vm.NewArray(items...)
	}
	return r.extra[key]
}

func (r *record) Set(key string, val goja.Value) bool {
	switch key {
	case "exports":
		r.m.SetExports(val)
		return true
	case "id", "filename", "loaded", "parent", "children":
		return false
	}
	r.extra[key] = val
	return true
}

func (r *record) Has(key string) bool {
	for _, k := range recordKeys {
		if k == key {
			return true
		}
	}
	_, ok := r.extra[key]
	return ok
}

func (r *record) Delete(key string) bool {
	if _, ok := r.extra[key]; ok {
		delete(r.extra, key)
		return true
	}
	return !r.Has(key)
}

func (r *record) Keys() []string {
	keys := append([]string(nil), recordKeys...)
	for k := range r.extra {
		keys = append(keys, k)
	}
	return keys
}
