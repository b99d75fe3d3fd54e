package blobfunctions

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funcworker/worker-e2e-tests/funcapp/funcapptest"
)

type digest struct {
	ContentSize int    `json:"content_size"`
	ContentMD5  string `json:"content_md5"`
	NumChars    int    `json:"num_chars"`
}

func withHost(t *testing.T, action func(host *funcapptest.Host, call func(method, route, body string) (int, string))) {
	host := funcapptest.NewHost(Script(), nil, nil)
	httphelpers.WithServer(host, func(server *httptest.Server) {
		call := func(method, route, body string) (int, string) {
			req, err := http.NewRequest(method, server.URL+"/api/"+route, strings.NewReader(body))
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			data, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			return resp.StatusCode, string(data)
		}
		action(host, call)
	})
}

func decodeDigest(t *testing.T, body string) digest {
	var d digest
	require.NoError(t, json.Unmarshal([]byte(body), &d), body)
	return d
}

func TestAppIndexes(t *testing.T) {
	ix, err := Script().Index()
	require.NoError(t, err)
	assert.Equal(t, 21, ix.Len())
}

func TestPutAndGetStr(t *testing.T) {
	withHost(t, func(_ *funcapptest.Host, call func(string, string, string) (int, string)) {
		status, body := call("POST", "put_blob_str", "test-data")
		assert.Equal(t, 200, status)
		assert.Equal(t, "OK", body)

		for _, route := range []string{"get_blob_str", "get_blob_as_str"} {
			status, body = call("GET", route, "")
			assert.Equal(t, 200, status)
			assert.Equal(t, "test-data", body, route)
		}
	})
}

func TestPutAndGetBytes(t *testing.T) {
	withHost(t, func(_ *funcapptest.Host, call func(string, string, string) (int, string)) {
		status, _ := call("POST", "put_blob_bytes", "test-data")
		assert.Equal(t, 200, status)
		for _, route := range []string{"get_blob_bytes", "get_blob_as_bytes"} {
			status, body := call("GET", route, "")
			assert.Equal(t, 200, status)
			assert.Equal(t, "test-data", body, route)
		}
	})
}

func TestFilelikeAndReturn(t *testing.T) {
	withHost(t, func(_ *funcapptest.Host, call func(string, string, string) (int, string)) {
		status, _ := call("POST", "put_blob_filelike", "")
		assert.Equal(t, 200, status)
		_, body := call("GET", "get_blob_filelike", "")
		assert.Equal(t, "filelike", body)

		status, _ = call("POST", "put_blob_return", "")
		assert.Equal(t, 200, status)
		_, body = call("GET", "get_blob_return", "")
		assert.Equal(t, "FROM RETURN", body)
	})
}

func TestBlobTrigger(t *testing.T) {
	withHost(t, func(host *funcapptest.Host, call func(string, string, string) (int, string)) {
		status, _ := call("POST", "put_blob_trigger", "trigger-data")
		assert.Equal(t, 200, status)
		assert.Equal(t, 1, host.Invocations("blob_trigger"))

		status, body := call("GET", "get_blob_triggered", "")
		assert.Equal(t, 200, status)
		var triggered struct {
			Name    string `json:"name"`
			Length  int    `json:"length"`
			Content string `json:"content"`
		}
		require.NoError(t, json.Unmarshal([]byte(body), &triggered))
		assert.Equal(t, TriggerBlob, triggered.Name)
		assert.Equal(t, len("trigger-data"), triggered.Length)
		assert.Equal(t, "trigger-data", triggered.Content)
	})
}

func TestBytesDigestOfStoredBlob(t *testing.T) {
	withHost(t, func(host *funcapptest.Host, call func(string, string, string) (int, string)) {
		content := bytes.Repeat([]byte{0xfe, 0x00, 0x42}, 1000)
		host.Blobs().Put(SharedBytesBlob, content)

		for _, route := range []string{
			"get_blob_as_bytes_return_http_response",
			"get_blob_as_bytes_stream_return_http_response",
		} {
			status, body := call("GET", route, "")
			assert.Equal(t, 200, status)
			d := decodeDigest(t, body)
			assert.Equal(t, len(content), d.ContentSize, route)
			assert.Equal(t, MD5Hex(content), d.ContentMD5, route)
		}
	})
}

func TestStrDigestOfStoredBlob(t *testing.T) {
	withHost(t, func(host *funcapptest.Host, call func(string, string, string) (int, string)) {
		host.Blobs().Put(SharedBytesBlob, []byte("naïve"))
		status, body := call("GET", "get_blob_as_str_return_http_response", "")
		assert.Equal(t, 200, status)
		d := decodeDigest(t, body)
		assert.Equal(t, 5, d.NumChars)
		assert.Equal(t, MD5Hex([]byte("naïve")), d.ContentMD5)
	})
}

func TestPutBytesDigestMatchesReadBack(t *testing.T) {
	withHost(t, func(host *funcapptest.Host, call func(string, string, string) (int, string)) {
		status, body := call("POST", "put_blob_as_bytes_return_http_response?content_size=2048", "")
		require.Equal(t, 200, status, body)
		written := decodeDigest(t, body)
		assert.Equal(t, 2048, written.ContentSize)

		stored, ok := host.Blobs().Get(SharedBytesOutBlob)
		require.True(t, ok)
		assert.Equal(t, written.ContentMD5, MD5Hex(stored))

		_, body = call("GET", "get_blob_as_bytes_out_return_http_response", "")
		read := decodeDigest(t, body)
		assert.Equal(t, written.ContentSize, read.ContentSize)
		assert.Equal(t, written.ContentMD5, read.ContentMD5)
	})
}

func TestPutBytesWithoutRandomInput(t *testing.T) {
	withHost(t, func(_ *funcapptest.Host, call func(string, string, string) (int, string)) {
		_, body := call("POST", "put_blob_as_bytes_return_http_response?content_size=100&no_random_input=1", "")
		d := decodeDigest(t, body)
		assert.Equal(t, MD5Hex(bytes.Repeat([]byte{0x01}, 100)), d.ContentMD5)
	})
}

func TestPutStrDigest(t *testing.T) {
	withHost(t, func(host *funcapptest.Host, call func(string, string, string) (int, string)) {
		status, body := call("POST", "put_blob_as_str_return_http_response?num_chars=10", "")
		require.Equal(t, 200, status, body)
		written := decodeDigest(t, body)
		assert.Equal(t, 10, written.NumChars)
		assert.Equal(t, 10, written.ContentSize)

		stored, ok := host.Blobs().Get(SharedStrOutBlob)
		require.True(t, ok)
		assert.Regexp(t, "^[A-Z0-9]{10}$", string(stored))

		_, body = call("GET", "get_blob_as_str_out_return_http_response", "")
		read := decodeDigest(t, body)
		assert.Equal(t, 10, read.NumChars)
		assert.Equal(t, written.ContentMD5, read.ContentMD5)
	})
}

func TestPutGetMultipleBlobs(t *testing.T) {
	withHost(t, func(host *funcapptest.Host, call func(string, string, string) (int, string)) {
		in1, in2 := []byte("first input"), bytes.Repeat([]byte{7}, 300)
		host.Blobs().Put(SharedBytesBlob1, in1)
		host.Blobs().Put(SharedBytesBlob2, in2)

		status, body := call("POST",
			"put_get_multiple_blobs_as_bytes_return_http_response?output_content_size_1=10&output_content_size_2=20", "")
		require.Equal(t, 200, status, body)
		var d map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(body), &d))

		assert.Equal(t, float64(len(in1)), d["input_content_size_1"])
		assert.Equal(t, float64(len(in2)), d["input_content_size_2"])
		assert.Equal(t, MD5Hex(in1), d["input_content_md5_1"])
		assert.Equal(t, MD5Hex(in2), d["input_content_md5_2"])
		assert.Equal(t, float64(10), d["output_content_size_1"])
		assert.Equal(t, float64(20), d["output_content_size_2"])

		out1, _ := host.Blobs().Get(SharedBytesOut1)
		out2, _ := host.Blobs().Get(SharedBytesOut2)
		assert.Len(t, out1, 10)
		assert.Len(t, out2, 20)
		assert.Equal(t, MD5Hex(out1), d["output_content_md5_1"])
		assert.Equal(t, MD5Hex(out2), d["output_content_md5_2"])
	})
}

func TestMissingParameterIsBadRequest(t *testing.T) {
	withHost(t, func(_ *funcapptest.Host, call func(string, string, string) (int, string)) {
		status, body := call("POST", "put_blob_as_str_return_http_response", "")
		assert.Equal(t, 400, status)
		assert.Contains(t, body, "num_chars")
	})
}

func TestJSONBodiesAreIndented(t *testing.T) {
	withHost(t, func(host *funcapptest.Host, call func(string, string, string) (int, string)) {
		host.Blobs().Put(SharedBytesBlob, []byte("x"))
		_, body := call("GET", "get_blob_as_bytes_return_http_response", "")
		assert.True(t, strings.HasPrefix(body, "{\n  \""), body)
	})
}

func TestRandomString(t *testing.T) {
	assert.Regexp(t, "^[A-Z0-9]{32}$", RandomString(32))
	assert.Equal(t, "", RandomString(0))
}
