package resolver

import "github.com/toolprint/vibekit/internal/container/options"

func buildOptionsFor(dockerfilePath, tag string) options.BuildOptions {
	return options.BuildOptions{
		File:     dockerfilePath,
		Tag:      tag,
		Progress: "plain",
	}
}
