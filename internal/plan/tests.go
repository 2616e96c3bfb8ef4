package plan

import (
	"fmt"

	"vulnplan/internal/model"
)

// verificationTests generates the three-test contract for a finding. The
// pre-fix test must fail today (the asset is vulnerable), the remediation
// test exercises the fix in isolation, and the post-fix test must pass
// once the fix lands. These are data for report rendering, not code.
func verificationTests(f model.Finding) *model.VerificationTests {
	subject := f.Asset.Identity()
	return &model.VerificationTests{
		PreFix: model.TestSpec{
			Name:            fmt.Sprintf("pre_fix_%s_not_vulnerable", f.Asset.Name),
			AssertionTarget: fmt.Sprintf("%s is not affected by %s", subject, f.CanonicalID),
			ExpectedBefore:  "fail",
			ExpectedAfter:   "pass",
		},
		Remediation: model.TestSpec{
			Name:            fmt.Sprintf("remediation_%s_fix_applies", f.Asset.Name),
			AssertionTarget: remediationTarget(f),
			ExpectedBefore:  "fail",
			ExpectedAfter:   "pass",
		},
		PostFix: model.TestSpec{
			Name:            fmt.Sprintf("post_fix_%s_not_vulnerable", f.Asset.Name),
			AssertionTarget: fmt.Sprintf("%s is not affected by %s", subject, f.CanonicalID),
			ExpectedBefore:  "fail",
			ExpectedAfter:   "pass",
		},
	}
}

func remediationTarget(f model.Finding) string {
	switch f.Asset.Kind {
	case model.KindDependency:
		if f.FixedVersion != "" {
			return fmt.Sprintf("declared version of %s resolves to >=%s", f.Asset.Name, f.FixedVersion)
		}
		return fmt.Sprintf("declared version of %s resolves outside the affected range", f.Asset.Name)
	case model.KindContainerImage:
		return fmt.Sprintf("image reference %s no longer uses the affected tag", f.Asset.Name)
	case model.KindIaCResource:
		return fmt.Sprintf("manifest for %s carries the patched configuration", f.Asset.Name)
	case model.KindSecretExposure:
		return fmt.Sprintf("no credential material remains in %s", f.Asset.FilePath)
	default:
		return fmt.Sprintf("fix for %s applied", f.CanonicalID)
	}
}
