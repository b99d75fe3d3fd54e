package funcapp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funcworker/worker-e2e-tests/servicedef"
)

func testFunction(bindings ...Binding) Function {
	return HTTPFunction("f", okHandler, bindings...)
}

func invocationWithData(f Function, data map[string]string) *Invocation {
	req := servicedef.InvokeRequest{Data: make(map[string]json.RawMessage)}
	for k, v := range data {
		req.Data[k] = json.RawMessage(v)
	}
	return NewInvocation(context.Background(), f, req)
}

func TestInputShapes(t *testing.T) {
	payload := []byte{0x00, 0xff, 'a'}
	f := testFunction(
		BlobInput("binary", "p/1", DefaultConnection, DataTypeBinary),
		BlobInput("text", "p/2", DefaultConnection, DataTypeString),
		BlobInput("unspecified", "p/3", DefaultConnection, DataTypeUnspecified),
		BlobInput("missing", "p/4", DefaultConnection, DataTypeBinary),
	)
	inv := invocationWithData(f, map[string]string{
		"binary":      `"` + base64.StdEncoding.EncodeToString(payload) + `"`,
		"text":        `"café"`,
		"unspecified": `{"a":1}`,
	})

	v, err := inv.Input("binary")
	require.NoError(t, err)
	data, err := v.Bytes()
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	v, err = inv.Input("text")
	require.NoError(t, err)
	s, err := v.Text()
	require.NoError(t, err)
	assert.Equal(t, "café", s)
	r, err := v.Reader()
	require.NoError(t, err)
	streamed, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, []byte("café"), streamed)

	v, err = inv.Input("unspecified")
	require.NoError(t, err)
	s, err = v.Text()
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, s)

	v, err = inv.Input("missing")
	require.NoError(t, err)
	assert.True(t, v.IsNull())
	data, err = v.Bytes()
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestInvalidBase64Input(t *testing.T) {
	f := testFunction(BlobInput("file", "p", DefaultConnection, DataTypeBinary))
	inv := invocationWithData(f, map[string]string{"file": `"not base64!"`})
	v, err := inv.Input("file")
	require.NoError(t, err)
	_, err = v.Bytes()
	assert.Error(t, err)
}

func TestInputMustBeDeclared(t *testing.T) {
	f := testFunction(BlobOutput("out", "p", DefaultConnection, DataTypeString))
	inv := invocationWithData(f, nil)
	_, err := inv.Input("nope")
	assert.ErrorIs(t, err, ErrUnknownBinding)
	_, err = inv.Input("out")
	assert.ErrorIs(t, err, ErrUnknownBinding)
}

func TestHTTPRequest(t *testing.T) {
	inv := invocationWithData(testFunction(), map[string]string{
		"req": `{"Url":"http://localhost:7071/api/f?content_size=10","Method":"POST",
			"Query":{"content_size":"10"},"Headers":{"Content-Type":["text/plain"]},
			"Params":{"id":"3"},"Body":"test-data"}`,
	})
	req, err := inv.HTTPRequest()
	require.NoError(t, err)
	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, "text/plain", req.Header.Get("Content-Type"))
	assert.Equal(t, []byte("test-data"), req.Body)

	v, ok := req.Param("content_size")
	assert.True(t, ok)
	assert.Equal(t, "10", v)
	v, ok = req.Param("id")
	assert.True(t, ok)
	assert.Equal(t, "3", v)
	_, ok = req.Param("no_random_input")
	assert.False(t, ok)
}

func TestHTTPRequestWithJSONBody(t *testing.T) {
	inv := invocationWithData(testFunction(), map[string]string{
		"req": `{"Method":"POST","Body":{"name":"Azure"}}`,
	})
	req, err := inv.HTTPRequest()
	require.NoError(t, err)
	var body struct{ Name string }
	require.NoError(t, req.JSON(&body))
	assert.Equal(t, "Azure", body.Name)
}

func TestHTTPRequestOnNonHTTPFunction(t *testing.T) {
	f := Function{Name: "t", Trigger: BlobTrigger("file", "p", DefaultConnection), Handler: okHandler}
	_, err := NewInvocation(context.Background(), f, servicedef.InvokeRequest{}).HTTPRequest()
	assert.Error(t, err)
}

func TestOutputsAreEncodedInDeclaredShape(t *testing.T) {
	f := testFunction(
		BlobOutput("binary", "p/1", DefaultConnection, DataTypeBinary),
		BlobOutput("text", "p/2", DefaultConnection, DataTypeString),
		BlobOutput("filelike", "p/3", DefaultConnection, DataTypeUnspecified),
	)
	inv := invocationWithData(f, nil)
	require.NoError(t, inv.SetOutput("binary", []byte{1, 2, 3}))
	require.NoError(t, inv.SetOutput("text", []byte("abc")))
	require.NoError(t, inv.SetOutput("filelike", strings.NewReader("filelike")))
	inv.Logf("wrote %d outputs", 3)

	resp, err := inv.Response("OK")
	require.NoError(t, err)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte{1, 2, 3}), resp.Outputs["binary"])
	assert.Equal(t, "abc", resp.Outputs["text"])
	assert.Equal(t, "filelike", resp.Outputs["filelike"])
	assert.Equal(t, []string{"wrote 3 outputs"}, resp.Logs)
	assert.Equal(t, servicedef.HTTPResponseData{
		StatusCode: 200,
		Body:       "OK",
		Headers:    map[string]string{"Content-Type": "text/plain; charset=utf-8"},
	}, resp.ReturnValue)
}

func TestSetOutputRejectsInputsAndReturn(t *testing.T) {
	f := testFunction(BlobInput("in", "p", DefaultConnection, DataTypeBinary))
	inv := invocationWithData(f, nil)
	assert.ErrorIs(t, inv.SetOutput("in", "x"), ErrUnknownBinding)
	assert.ErrorIs(t, inv.SetOutput("$return", "x"), ErrUnknownBinding)
	assert.ErrorIs(t, inv.SetOutput("other", "x"), ErrUnknownBinding)
}

func TestReturnValueToBlob(t *testing.T) {
	f := Function{
		Name:     "put_blob_return",
		Trigger:  HTTPTrigger("req", "put_blob_return"),
		Bindings: []Binding{BlobOutput("$return", "p", DefaultConnection, DataTypeUnspecified)},
		Handler:  okHandler,
	}
	resp, err := NewInvocation(context.Background(), f, servicedef.InvokeRequest{}).Response("FROM RETURN")
	require.NoError(t, err)
	assert.Equal(t, "FROM RETURN", resp.ReturnValue)
}

func TestReturnValueWithoutReturnBinding(t *testing.T) {
	f := Function{Name: "t", Trigger: BlobTrigger("file", "p", DefaultConnection), Handler: okHandler}
	inv := NewInvocation(context.Background(), f, servicedef.InvokeRequest{})
	_, err := inv.Response("x")
	assert.Error(t, err)
	resp, err := inv.Response(nil)
	require.NoError(t, err)
	assert.Nil(t, resp.ReturnValue)
}

func TestJSONResponseIsIndented(t *testing.T) {
	resp, err := JSONResponse(200, map[string]interface{}{"content_size": 2})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"content_size\": 2\n}", string(resp.Body))
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestMetadataLookup(t *testing.T) {
	f := Function{Name: "t", Trigger: BlobTrigger("file", "p", DefaultConnection), Handler: okHandler}
	inv := NewInvocation(context.Background(), f, servicedef.InvokeRequest{
		Metadata: map[string]ldvalue.Value{"Name": ldvalue.String("test-blob-trigger.txt")},
	})
	assert.Equal(t, "test-blob-trigger.txt", inv.Metadata("Name").StringValue())
	assert.True(t, inv.Metadata("Uri").IsNull())
}
