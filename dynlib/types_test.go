package dynlib

import (
	"testing"
	"unsafe"
)

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{Void, "void"},
		{Int32, "int32"},
		{Int64, "int64"},
		{Float32, "float32"},
		{Float64, "float64"},
		{Pointer, "pointer"},
		{Kind(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestArgConstructors(t *testing.T) {
	if a := Int32Arg(-7); a.Kind != Int32 || a.Int != -7 {
		t.Errorf("Int32Arg = %+v", a)
	}
	if a := Int64Arg(1 << 40); a.Kind != Int64 || a.Int != 1<<40 {
		t.Errorf("Int64Arg = %+v", a)
	}
	if a := Float32Arg(1.5); a.Kind != Float32 || a.Float != 1.5 {
		t.Errorf("Float32Arg = %+v", a)
	}
	if a := Float64Arg(2.25); a.Kind != Float64 || a.Float != 2.25 {
		t.Errorf("Float64Arg = %+v", a)
	}
	var buf [4]byte
	p := unsafe.Pointer(&buf)
	if a := PtrArg(p); a.Kind != Pointer || a.Ptr != p {
		t.Errorf("PtrArg = %+v", a)
	}
}

func TestLoadError_Message(t *testing.T) {
	err := &LoadError{Path: "/opt/build/gemm/lib.so", Detail: "no such file"}
	want := "dynlib: load /opt/build/gemm/lib.so: no such file"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestSymbolError_Message(t *testing.T) {
	err := &SymbolError{Symbol: "gemm_kernel", Detail: "undefined symbol"}
	want := "dynlib: symbol gemm_kernel: undefined symbol"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
