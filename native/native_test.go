package native

import (
	"context"
	"testing"
)

// add(i32, i32) i32, exported as "add".
var addWasm = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x01, 0x07, 0x01, 0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f,
	0x03, 0x02, 0x01, 0x00,
	0x07, 0x07, 0x01, 0x03, 0x61, 0x64, 0x64, 0x00, 0x00,
	0x0a, 0x09, 0x01, 0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0x6a, 0x0b,
}

func TestLoader_LoadAddon(t *testing.T) {
	ctx := context.Background()
	l := New(ctx, nil)
	defer l.Close(ctx)

	exports, err := l.LoadAddon(ctx, "/lib/add.wasm", addWasm)
	if err != nil {
		t.Fatalf("LoadAddon: %v", err)
	}
	add, ok := exports["add"].(Func)
	if !ok {
		t.Fatalf("add export is %T", exports["add"])
	}

	got, err := add(2, 40)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if got != float64(42) {
		t.Errorf("add(2, 40) = %v", got)
	}

	got, err = add(-5, 3)
	if err != nil || got != float64(-2) {
		t.Errorf("add(-5, 3) = %v, %v", got, err)
	}

	if _, err := add(1); err == nil {
		t.Error("arity mismatch should fail")
	}
}

func TestLoader_LoadTwice(t *testing.T) {
	ctx := context.Background()
	l := New(ctx, &Config{MemoryLimitPages: 16})
	defer l.Close(ctx)

	for i := 0; i < 2; i++ {
		if _, err := l.LoadAddon(ctx, "/lib/add.wasm", addWasm); err != nil {
			t.Fatalf("load %d: %v", i, err)
		}
	}
}

func TestLoader_InvalidModule(t *testing.T) {
	ctx := context.Background()
	l := New(ctx, nil)
	defer l.Close(ctx)

	if _, err := l.LoadAddon(ctx, "/lib/bad.wasm", []byte("not wasm")); err == nil {
		t.Error("garbage bytes should fail to compile")
	}
}
