package registry

import (
	"context"
	"fmt"

	"github.com/toolprint/vibekit/internal/container"
	"github.com/toolprint/vibekit/internal/errkind"
	"github.com/toolprint/vibekit/pkg/agentkind"
)

var errAuthRequired = errkind.AuthRequired

// uploadViaPushTag is the tag-then-push upload loop used by the hub
// provider, which needs no repository-creation step before pushing. The
// forge and cloud providers implement UploadImages themselves: forge adds
// a post-push existence check, cloud a repository-creation step.
func uploadViaPushTag(ctx context.Context, p Provider, client container.Client, user string, kinds []agentkind.Kind) (UploadReport, error) {
	report := UploadReport{OverallSuccess: true}
	for _, k := range kinds {
		ref, ok := p.ImageNameFor(k, user)
		if !ok {
			report.OverallSuccess = false
			report.PerAgent = append(report.PerAgent, UploadResult{
				AgentKind: k,
				Success:   false,
				Error:     fmt.Errorf("registry: no namespace known for %s", k),
			})
			continue
		}
		result := pushOne(ctx, client, k, ref)
		if !result.Success {
			report.OverallSuccess = false
		}
		report.PerAgent = append(report.PerAgent, result)
	}
	return report, nil
}

func pushOne(ctx context.Context, client container.Client, kind agentkind.Kind, ref agentkind.ImageRef) UploadResult {
	local := agentkind.LocalTag(kind)
	if err := client.Tag(ctx, local, ref.String()); err != nil {
		return UploadResult{AgentKind: kind, Success: false, Error: fmt.Errorf("registry: tagging %s: %w", local, err), ImageRef: ref}
	}
	if err := client.Push(ctx, nil, ref.String()); err != nil {
		return UploadResult{AgentKind: kind, Success: false, Error: fmt.Errorf("registry: pushing %s: %w", ref, err), ImageRef: ref}
	}
	return UploadResult{AgentKind: kind, Success: true, ImageRef: ref}
}
