package e2etests

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/funcworker/worker-e2e-tests/fixtures/blobfunctions"
	"github.com/funcworker/worker-e2e-tests/framework/ldtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func DoBlobFunctionTests(t *ldtest.T) {
	t.RequireCapability(CapabilityBlobStorage)
	host := RequireHost(t, blobfunctions.ScriptPath)

	roundTrips := []struct {
		name, put, body string
		gets            []string
	}{
		{"str", "put_blob_str", "test-data", []string{"get_blob_str", "get_blob_as_str"}},
		{"bytes", "put_blob_bytes", "test-data", []string{"get_blob_bytes", "get_blob_as_bytes"}},
	}
	for _, rt := range roundTrips {
		rt := rt
		runRetryable(t, rt.name+" round trip", func(t *ldtest.T) {
			RequireText(t, host.Post(t, rt.put, rt.body), "OK")
			for _, get := range rt.gets {
				resp := host.Get(t, get)
				RequireOK(t, resp)
				assert.Equal(t, rt.body, resp.Text(), "unexpected content from %s", get)
			}
		})
	}

	runRetryable(t, "filelike round trip", func(t *ldtest.T) {
		RequireText(t, host.Post(t, "put_blob_filelike", ""), "OK")
		RequireText(t, host.Get(t, "get_blob_filelike"), "filelike")
	})

	runRetryable(t, "return value round trip", func(t *ldtest.T) {
		RequireOK(t, host.Post(t, "put_blob_return", ""))
		RequireText(t, host.Get(t, "get_blob_return"), "FROM RETURN")
	})

	runRetryable(t, "blob trigger", func(t *ldtest.T) {
		data := uuid.NewString()
		RequireText(t, host.Post(t, "put_blob_trigger", data), "OK")

		// The triggered function runs asynchronously; a stale result fails this attempt.
		resp := host.Get(t, "get_blob_triggered")
		RequireOK(t, resp)
		var triggered struct {
			Name    string `json:"name"`
			Length  int    `json:"length"`
			Content string `json:"content"`
		}
		require.NoError(t, json.Unmarshal(resp.Body, &triggered), "invalid body: %s", resp)
		assert.Equal(t, blobfunctions.TriggerBlob, triggered.Name)
		assert.Equal(t, len(data), triggered.Length)
		assert.Equal(t, data, triggered.Content)
	})

	for _, size := range []struct {
		bytes         int
		noRandomInput bool
	}{
		{1024, false},
		{4 * 1024 * 1024, true},
	} {
		size := size
		name := fmt.Sprintf("bytes digest of %d written bytes matches read digest", size.bytes)
		runRetryable(t, name, func(t *ldtest.T) {
			query := url.Values{"content_size": {strconv.Itoa(size.bytes)}}
			if size.noRandomInput {
				query.Set("no_random_input", "1")
			}
			written := RequireDigestReport(t, host.GetWithQuery(t, "put_blob_as_bytes_return_http_response", query))
			assert.Equal(t, size.bytes, written.ContentSize.OrElse(-1))
			if size.noRandomInput {
				assert.Equal(t, blobfunctions.MD5Hex(repeatedByte(0x01, size.bytes)), written.ContentMD5)
			}

			read := RequireDigestReport(t, host.Get(t, "get_blob_as_bytes_out_return_http_response"))
			assert.Equal(t, written.ContentSize, read.ContentSize)
			assert.Equal(t, written.ContentMD5, read.ContentMD5)
		})
	}

	runRetryable(t, "str digest of written characters matches read digest", func(t *ldtest.T) {
		query := url.Values{"num_chars": {"10"}}
		written := RequireDigestReport(t, host.GetWithQuery(t, "put_blob_as_str_return_http_response", query))
		assert.Equal(t, 10, written.NumChars.OrElse(-1))
		assert.Equal(t, 10, written.ContentSize.OrElse(-1), "ASCII characters should be one byte each")

		read := RequireDigestReport(t, host.Get(t, "get_blob_as_str_out_return_http_response"))
		assert.Equal(t, written.NumChars, read.NumChars)
		assert.Equal(t, written.ContentMD5, read.ContentMD5)
	})

	runRetryable(t, "bytes, stream and str readers agree", func(t *ldtest.T) {
		asBytes := RequireDigestReport(t, host.Get(t, "get_blob_as_bytes_return_http_response"))
		asStream := RequireDigestReport(t, host.Get(t, "get_blob_as_bytes_stream_return_http_response"))
		asStr := RequireDigestReport(t, host.Get(t, "get_blob_as_str_return_http_response"))

		require.True(t, asBytes.ContentSize.IsDefined(), "content_size missing")
		assert.Equal(t, asBytes.ContentSize, asStream.ContentSize)
		assert.Equal(t, asBytes.ContentMD5, asStream.ContentMD5)
		assert.True(t, asStr.NumChars.IsDefined(), "num_chars missing")
		assert.LessOrEqual(t, asStr.NumChars.IntValue(), asBytes.ContentSize.IntValue())
	})

	runRetryable(t, "multiple blobs in and out", func(t *ldtest.T) {
		query := url.Values{
			"output_content_size_1": {"100"},
			"output_content_size_2": {"200"},
		}
		report := RequireMultiDigestReport(t,
			host.GetWithQuery(t, "put_get_multiple_blobs_as_bytes_return_http_response", query))
		assert.Equal(t, 100, report.OutputContentSize1.OrElse(-1))
		assert.Equal(t, 200, report.OutputContentSize2.OrElse(-1))
		assert.True(t, report.InputContentSize1.IsDefined(), "input_content_size_1 missing")
		assert.True(t, report.InputContentSize2.IsDefined(), "input_content_size_2 missing")
	})
}

func repeatedByte(b byte, n int) []byte {
	ret := make([]byte, n)
	for i := range ret {
		ret[i] = b
	}
	return ret
}
