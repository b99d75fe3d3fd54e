package e2etests

import (
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/funcworker/worker-e2e-tests/framework/harness"
	"github.com/funcworker/worker-e2e-tests/framework/ldtest"

	"github.com/stretchr/testify/require"
)

// DigestReport is the JSON body of the functions that read or write a blob and report
// its size and MD5 digest. Fields that a function does not report are undefined.
type DigestReport struct {
	ContentSize ldvalue.OptionalInt `json:"content_size"`
	ContentMD5  string              `json:"content_md5"`
	NumChars    ldvalue.OptionalInt `json:"num_chars"`
}

// MultiDigestReport is the body of put_get_multiple_blobs_as_bytes_return_http_response.
type MultiDigestReport struct {
	InputContentSize1  ldvalue.OptionalInt `json:"input_content_size_1"`
	InputContentSize2  ldvalue.OptionalInt `json:"input_content_size_2"`
	InputContentMD51   string              `json:"input_content_md5_1"`
	InputContentMD52   string              `json:"input_content_md5_2"`
	OutputContentSize1 ldvalue.OptionalInt `json:"output_content_size_1"`
	OutputContentSize2 ldvalue.OptionalInt `json:"output_content_size_2"`
	OutputContentMD51  string              `json:"output_content_md5_1"`
	OutputContentMD52  string              `json:"output_content_md5_2"`
}

const md5HexPattern = "^[0-9a-f]{32}$"

// RequireDigestReport decodes a successful digest response.
func RequireDigestReport(t *ldtest.T, resp *harness.Response) DigestReport {
	RequireOK(t, resp)
	var report DigestReport
	require.NoError(t, resp.JSON(&report))
	require.Regexp(t, md5HexPattern, report.ContentMD5, "content_md5 is not a lowercase hex MD5 digest")
	return report
}

func RequireMultiDigestReport(t *ldtest.T, resp *harness.Response) MultiDigestReport {
	RequireOK(t, resp)
	var report MultiDigestReport
	require.NoError(t, resp.JSON(&report))
	for _, digest := range []string{
		report.InputContentMD51, report.InputContentMD52, report.OutputContentMD51, report.OutputContentMD52,
	} {
		require.Regexp(t, md5HexPattern, digest)
	}
	return report
}
