// Package blobfunctions is the generic blob fixture app: HTTP-triggered functions that
// read and write blobs in each of the binding shapes, plus a blob-triggered function.
package blobfunctions

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	mathrand "math/rand"
	"net/http"
	"strconv"
	"strings"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/funcworker/worker-e2e-tests/funcapp"
)

// ScriptPath is the script directory of the app, relative to the scripts root.
const ScriptPath = "blob_functions/blob_functions_stein/generic"

// Container is the prefix of every blob path used by the app.
const Container = "python-worker-tests"

const conn = funcapp.DefaultConnection

// Blob paths.
const (
	BytesBlob          = Container + "/test-bytes.txt"
	StrBlob            = Container + "/test-str.txt"
	FilelikeBlob       = Container + "/test-filelike.txt"
	ReturnBlob         = Container + "/test-return.txt"
	TriggerBlob        = Container + "/test-blob-trigger.txt"
	TriggeredBlob      = Container + "/test-blob-triggered.txt"
	SharedBytesBlob    = Container + "/shmem-test-bytes.txt"
	SharedBytesOutBlob = Container + "/shmem-test-bytes-out.txt"
	SharedStrOutBlob   = Container + "/shmem-test-str-out.txt"
	SharedBytesBlob1   = Container + "/shmem-test-bytes-1.txt"
	SharedBytesBlob2   = Container + "/shmem-test-bytes-2.txt"
	SharedBytesOut1    = Container + "/shmem-test-bytes-out-1.txt"
	SharedBytesOut2    = Container + "/shmem-test-bytes-out-2.txt"
)

const randomStringAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Script returns the script declared in ScriptPath.
func Script() funcapp.Script {
	return funcapp.Script{Path: ScriptPath, Apps: []*funcapp.App{NewApp()}}
}

// NewApp builds the registration table of the app.
func NewApp() *funcapp.App {
	app := funcapp.NewApp()

	app.Register(funcapp.Function{
		Name:    "blob_trigger",
		Trigger: funcapp.BlobTrigger("file", TriggerBlob, conn),
		Bindings: []funcapp.Binding{
			funcapp.BlobOutput("$return", TriggeredBlob, conn, funcapp.DataTypeUnspecified),
		},
		Handler: blobTrigger,
	})

	app.Route("get_blob_as_bytes", readText("file"),
		funcapp.BlobInput("file", BytesBlob, conn, funcapp.DataTypeBinary))
	app.Route("get_blob_as_bytes_return_http_response", bytesDigest,
		funcapp.BlobInput("file", SharedBytesBlob, conn, funcapp.DataTypeBinary))
	app.Route("get_blob_as_bytes_stream_return_http_response", streamDigest,
		funcapp.BlobInput("file", SharedBytesBlob, conn, funcapp.DataTypeBinary))
	app.Route("get_blob_as_str", readText("file"),
		funcapp.BlobInput("file", StrBlob, conn, funcapp.DataTypeString))
	app.Route("get_blob_as_str_return_http_response", strDigest,
		funcapp.BlobInput("file", SharedBytesBlob, conn, funcapp.DataTypeString))
	app.Route("get_blob_as_bytes_out_return_http_response", bytesDigest,
		funcapp.BlobInput("file", SharedBytesOutBlob, conn, funcapp.DataTypeBinary))
	app.Route("get_blob_as_str_out_return_http_response", strDigest,
		funcapp.BlobInput("file", SharedStrOutBlob, conn, funcapp.DataTypeString))

	for _, r := range []struct{ route, path string }{
		{"get_blob_bytes", BytesBlob},
		{"get_blob_filelike", FilelikeBlob},
		{"get_blob_return", ReturnBlob},
		{"get_blob_str", StrBlob},
		{"get_blob_triggered", TriggeredBlob},
	} {
		app.Route(r.route, readStream("file"),
			funcapp.BlobInput("file", r.path, conn, funcapp.DataTypeUnspecified))
	}

	app.Route("put_blob_as_bytes_return_http_response", putBytesDigest,
		funcapp.BlobOutput("file", SharedBytesOutBlob, conn, funcapp.DataTypeBinary))
	app.Route("put_blob_as_str_return_http_response", putStrDigest,
		funcapp.BlobOutput("file", SharedStrOutBlob, conn, funcapp.DataTypeString))
	app.Route("put_blob_bytes", copyBody("file"),
		funcapp.BlobOutput("file", BytesBlob, conn, funcapp.DataTypeUnspecified))
	app.Route("put_blob_filelike", putFilelike,
		funcapp.BlobOutput("file", FilelikeBlob, conn, funcapp.DataTypeUnspecified))
	app.Route("put_blob_str", copyBody("file"),
		funcapp.BlobOutput("file", StrBlob, conn, funcapp.DataTypeUnspecified))
	app.Route("put_blob_trigger", copyBody("file"),
		funcapp.BlobOutput("file", TriggerBlob, conn, funcapp.DataTypeUnspecified))

	app.Register(funcapp.Function{
		Name:    "put_blob_return",
		Trigger: funcapp.HTTPTrigger("req", "put_blob_return"),
		Bindings: []funcapp.Binding{
			funcapp.BlobOutput("$return", ReturnBlob, conn, funcapp.DataTypeUnspecified),
		},
		Handler: func(*funcapp.Invocation) (interface{}, error) {
			return "FROM RETURN", nil
		},
	})

	app.Route("put_get_multiple_blobs_as_bytes_return_http_response", putGetMultiple,
		funcapp.BlobInput("inputfile1", SharedBytesBlob1, conn, funcapp.DataTypeBinary),
		funcapp.BlobInput("inputfile2", SharedBytesBlob2, conn, funcapp.DataTypeBinary),
		funcapp.BlobOutput("outputfile1", SharedBytesOut1, conn, funcapp.DataTypeBinary),
		funcapp.BlobOutput("outputfile2", SharedBytesOut2, conn, funcapp.DataTypeBinary),
	)

	return app
}

// MD5Hex returns the lowercase hex MD5 digest that the app reports for content.
func MD5Hex(content []byte) string {
	sum := md5.Sum(content)
	return hex.EncodeToString(sum[:])
}

func blobTrigger(inv *funcapp.Invocation) (interface{}, error) {
	v, err := inv.Input("file")
	if err != nil {
		return nil, err
	}
	content, err := v.Bytes()
	if err != nil {
		return nil, err
	}
	name := inv.Metadata("BlobTrigger").StringValue()
	if name == "" {
		name = TriggerBlob
	}
	return ldvalue.ObjectBuild().
		Set("name", ldvalue.String(name)).
		Set("length", ldvalue.Int(len(content))).
		Set("content", ldvalue.String(string(content))).
		Build().JSONString(), nil
}

func readText(binding string) funcapp.HandlerFunc {
	return func(inv *funcapp.Invocation) (interface{}, error) {
		v, err := inv.Input(binding)
		if err != nil {
			return nil, err
		}
		return v.Text()
	}
}

func readStream(binding string) funcapp.HandlerFunc {
	return func(inv *funcapp.Invocation) (interface{}, error) {
		v, err := inv.Input(binding)
		if err != nil {
			return nil, err
		}
		r, err := v.Reader()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		return string(data), nil
	}
}

func copyBody(binding string) funcapp.HandlerFunc {
	return func(inv *funcapp.Invocation) (interface{}, error) {
		req, err := inv.HTTPRequest()
		if err != nil {
			return nil, err
		}
		if err := inv.SetOutput(binding, req.Body); err != nil {
			return nil, err
		}
		return "OK", nil
	}
}

func putFilelike(inv *funcapp.Invocation) (interface{}, error) {
	if err := inv.SetOutput("file", strings.NewReader("filelike")); err != nil {
		return nil, err
	}
	return "OK", nil
}

func bytesDigest(inv *funcapp.Invocation) (interface{}, error) {
	v, err := inv.Input("file")
	if err != nil {
		return nil, err
	}
	content, err := v.Bytes()
	if err != nil {
		return nil, err
	}
	return funcapp.JSONResponse(http.StatusOK, map[string]interface{}{
		"content_size": len(content),
		"content_md5":  MD5Hex(content),
	})
}

func streamDigest(inv *funcapp.Invocation) (interface{}, error) {
	v, err := inv.Input("file")
	if err != nil {
		return nil, err
	}
	r, err := v.Reader()
	if err != nil {
		return nil, err
	}
	h := md5.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return nil, err
	}
	return funcapp.JSONResponse(http.StatusOK, map[string]interface{}{
		"content_size": n,
		"content_md5":  hex.EncodeToString(h.Sum(nil)),
	})
}

func strDigest(inv *funcapp.Invocation) (interface{}, error) {
	v, err := inv.Input("file")
	if err != nil {
		return nil, err
	}
	content, err := v.Text()
	if err != nil {
		return nil, err
	}
	return funcapp.JSONResponse(http.StatusOK, map[string]interface{}{
		"num_chars":   len([]rune(content)),
		"content_md5": MD5Hex([]byte(content)),
	})
}

func putBytesDigest(inv *funcapp.Invocation) (interface{}, error) {
	req, err := inv.HTTPRequest()
	if err != nil {
		return nil, err
	}
	size, err := intParam(req, "content_size")
	if err != nil {
		return badRequest(err), nil
	}
	var content []byte
	if _, ok := req.Param("no_random_input"); ok {
		content = repeatedBytes(0x01, size)
	} else if content, err = randomBytes(size); err != nil {
		return nil, err
	}
	if err := inv.SetOutput("file", content); err != nil {
		return nil, err
	}
	return funcapp.JSONResponse(http.StatusOK, map[string]interface{}{
		"content_size": size,
		"content_md5":  MD5Hex(content),
	})
}

func putStrDigest(inv *funcapp.Invocation) (interface{}, error) {
	req, err := inv.HTTPRequest()
	if err != nil {
		return nil, err
	}
	numChars, err := intParam(req, "num_chars")
	if err != nil {
		return badRequest(err), nil
	}
	content := RandomString(numChars)
	if err := inv.SetOutput("file", content); err != nil {
		return nil, err
	}
	return funcapp.JSONResponse(http.StatusOK, map[string]interface{}{
		"num_chars":    numChars,
		"content_size": len(content),
		"content_md5":  MD5Hex([]byte(content)),
	})
}

func putGetMultiple(inv *funcapp.Invocation) (interface{}, error) {
	req, err := inv.HTTPRequest()
	if err != nil {
		return nil, err
	}
	body := make(map[string]interface{})
	for i := 1; i <= 2; i++ {
		v, err := inv.Input(fmt.Sprintf("inputfile%d", i))
		if err != nil {
			return nil, err
		}
		input, err := v.Bytes()
		if err != nil {
			return nil, err
		}
		body[fmt.Sprintf("input_content_size_%d", i)] = len(input)
		body[fmt.Sprintf("input_content_md5_%d", i)] = MD5Hex(input)

		size, err := intParam(req, fmt.Sprintf("output_content_size_%d", i))
		if err != nil {
			return badRequest(err), nil
		}
		output, err := randomBytes(size)
		if err != nil {
			return nil, err
		}
		if err := inv.SetOutput(fmt.Sprintf("outputfile%d", i), output); err != nil {
			return nil, err
		}
		body[fmt.Sprintf("output_content_size_%d", i)] = size
		body[fmt.Sprintf("output_content_md5_%d", i)] = MD5Hex(output)
	}
	return funcapp.JSONResponse(http.StatusOK, body)
}

func intParam(req *funcapp.HTTPRequest, name string) (int, error) {
	s, ok := req.Param(name)
	if !ok {
		return 0, fmt.Errorf("missing parameter %q", name)
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid parameter %q: %q", name, s)
	}
	return n, nil
}

func badRequest(err error) *funcapp.HTTPResponse {
	return funcapp.TextResponse(http.StatusBadRequest, err.Error())
}

func randomBytes(n int) ([]byte, error) {
	data := make([]byte, n)
	if _, err := rand.Read(data); err != nil {
		return nil, err
	}
	return data, nil
}

func repeatedBytes(b byte, n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = b
	}
	return data
}

// RandomString returns n characters drawn from the ASCII uppercase letters and digits.
func RandomString(n int) string {
	ret := make([]byte, n)
	for i := range ret {
		ret[i] = randomStringAlphabet[mathrand.Intn(len(randomStringAlphabet))]
	}
	return string(ret)
}
