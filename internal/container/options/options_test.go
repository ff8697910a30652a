package options

import (
	"reflect"
	"testing"
)

func TestToArgsSkipsZeroFields(t *testing.T) {
	opts := &CreateContainer{
		ManagementOptions: ManagementOptions{
			Name: "my-box",
		},
	}
	args := ToArgs(opts)
	if !reflect.DeepEqual(args, []string{"--name", "my-box"}) {
		t.Errorf("ToArgs() = %v", args)
	}
}

func TestToArgsMapSortsKeys(t *testing.T) {
	opts := &ManagementOptions{
		Label: map[string]string{"zeta": "2", "alpha": "1"},
	}
	args := ToArgs(opts)
	want := []string{"--label", "alpha=1,zeta=2"}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("ToArgs() = %v, want %v", args, want)
	}
}

func TestToArgsSliceRepeatsFlag(t *testing.T) {
	opts := &ManagementOptions{
		Publish: []string{"8080:80", "9090:90"},
	}
	args := ToArgs(opts)
	want := []string{"--publish", "8080:80", "--publish", "9090:90"}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("ToArgs() = %v, want %v", args, want)
	}
}

func TestToArgsBoolFlagHasNoValue(t *testing.T) {
	opts := &ManagementOptions{Detach: true}
	args := ToArgs(opts)
	want := []string{"--detach"}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("ToArgs() = %v, want %v", args, want)
	}
}

func TestToArgsEmbedsAnonymousStructs(t *testing.T) {
	opts := &CreateContainer{
		ProcessOptions:  ProcessOptions{WorkDir: "/app"},
		ResourceOptions: ResourceOptions{CPUs: "2"},
	}
	args := ToArgs(opts)
	want := []string{"--workdir", "/app", "--cpus", "2"}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("ToArgs() = %v, want %v", args, want)
	}
}
