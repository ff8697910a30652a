// Package options defines flag-tagged structs for the docker CLI commands
// the container client shells out to, and the reflection helper that turns
// them into an argv slice.
package options

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
)

// ProcessOptions covers the flags shared by `docker run`/`docker exec`.
type ProcessOptions struct {
	// Env sets environment variables (format: key=value)
	Env map[string]string `flag:"--env"`
	// WorkDir sets the working directory for the process
	WorkDir string `flag:"--workdir"`
	// User runs the process as the given user (format: name|uid[:gid])
	User string `flag:"--user"`
	// Interactive keeps stdin open
	Interactive bool `flag:"--interactive"`
	// TTY allocates a pseudo-TTY
	TTY bool `flag:"--tty"`
}

// ResourceOptions bounds the compute resources of a sandbox container.
type ResourceOptions struct {
	// CPUs is the number of CPUs to allocate
	CPUs string `flag:"--cpus"`
	// Memory is the memory limit, with K/M/G suffix
	Memory string `flag:"--memory"`
}

// ManagementOptions covers `docker run`/`docker create` lifecycle flags.
type ManagementOptions struct {
	// Name assigns a fixed container name
	Name string `flag:"--name"`
	// Label adds a key=value label to the container
	Label map[string]string `flag:"--label"`
	// Mount adds a bind or volume mount (format: type=bind,source=<>,target=<>)
	Mount []string `flag:"--mount"`
	// Publish publishes a container port to the host
	Publish []string `flag:"--publish"`
	// Detach runs the container in the background
	Detach bool `flag:"--detach"`
	// Remove removes the container once it exits
	Remove bool `flag:"--rm"`
	// Network attaches the container to a network
	Network string `flag:"--network"`
}

// CreateContainer is the flagset for `docker create`/`docker run`.
type CreateContainer struct {
	ProcessOptions
	ResourceOptions
	ManagementOptions
}

// StartContainer is the flagset for `docker start`.
type StartContainer struct {
	// Attach attaches stdout/stderr
	Attach bool `flag:"--attach"`
	// Interactive attaches stdin
	Interactive bool `flag:"--interactive"`
}

// StopContainer is the flagset for `docker stop`.
type StopContainer struct {
	// Time is the number of seconds to wait before killing the container
	Time int `flag:"--time"`
}

// KillContainer is the flagset for `docker kill`.
type KillContainer struct {
	// Signal is the signal to send (default: KILL)
	Signal string `flag:"--signal"`
}

// RemoveContainer is the flagset for `docker rm`.
type RemoveContainer struct {
	// Force kills the container if it is running
	Force bool `flag:"--force"`
	// Volumes removes anonymous volumes associated with the container
	Volumes bool `flag:"--volumes"`
}

// ExecContainer is the flagset for `docker exec`.
type ExecContainer struct {
	ProcessOptions
}

// BuildOptions is the flagset for `docker build`.
type BuildOptions struct {
	// BuildArg sets a build-time variable (format: key=value)
	BuildArg map[string]string `flag:"--build-arg"`
	// File is the path to the Dockerfile
	File string `flag:"--file"`
	// Tag is the name:tag for the built image
	Tag string `flag:"--tag"`
	// NoCache disables the build cache
	NoCache bool `flag:"--no-cache"`
	// Platform sets the target platform
	Platform string `flag:"--platform"`
	// Progress sets the progress output type (auto|plain|tty)
	Progress string `flag:"--progress"`
}

// PullOptions is the flagset for `docker pull`.
type PullOptions struct {
	// Platform restricts the pull to a single platform
	Platform string `flag:"--platform"`
	// Quiet suppresses verbose output
	Quiet bool `flag:"--quiet"`
}

// PushOptions is the flagset for `docker push`.
type PushOptions struct {
	// Quiet suppresses verbose output
	Quiet bool `flag:"--quiet"`
}

// ToArgs flattens a flag-tagged struct (including anonymous embedded
// structs) into CLI arguments, skipping zero-valued fields.
func ToArgs[T any](s *T) []string {
	if s == nil {
		s = new(T)
	}
	var ret []string
	st := reflect.TypeOf(*s)
	sv := reflect.ValueOf(*s)
	if st.Kind() == reflect.Pointer {
		sv = reflect.Indirect(sv)
		st = sv.Type()
	}
	for i := range st.NumField() {
		field := st.Field(i)
		fv := sv.Field(i)
		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			fvi := fv.Interface()
			ret = append(ret, ToArgs(&fvi)...)
			continue
		}
		flagTag, ok := field.Tag.Lookup("flag")
		if !ok {
			continue
		}
		flagName := strings.Split(flagTag, ",")[0]
		v := reflect.ValueOf(fv.Interface())
		if v.IsZero() {
			continue
		}

		fieldKind := field.Type.Kind()
		switch fieldKind {
		case reflect.Array, reflect.Slice:
			for i := 0; i < fv.Len(); i++ {
				ret = append(ret, flagName, fmt.Sprintf("%v", fv.Index(i)))
			}
			continue
		case reflect.Map:
			m := v.Interface().(map[string]string)
			keys := slices.Sorted(maps.Keys(m))
			var mapVals []string
			for _, k := range keys {
				mapVals = append(mapVals, fmt.Sprintf("%v=%v", k, m[k]))
			}
			ret = append(ret, flagName, strings.Join(mapVals, ","))
			continue
		case reflect.Bool:
			ret = append(ret, flagName)
			continue
		default:
			ret = append(ret, flagName, fmt.Sprintf("%v", fv.Interface()))
		}
	}
	return ret
}
