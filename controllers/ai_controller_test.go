package controller_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRewriteValidation(t *testing.T) {
	e := newEnv(t)

	resp := e.do(http.MethodPost, "/ai/rewrite", map[string]interface{}{
		"text": "Check out our product",
		"tone": "sarcastic",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, detail(t, resp), "Invalid tone")

	resp = e.do(http.MethodPost, "/ai/rewrite", map[string]interface{}{
		"text":    "Check out our product",
		"purpose": "spam",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, detail(t, resp), "Invalid purpose")

	resp = e.do(http.MethodPost, "/ai/rewrite", map[string]interface{}{
		"text": "   ",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, detail(t, resp), "empty")
}

func TestRewriteRequiresAuth(t *testing.T) {
	e := newEnv(t)
	saved := e.token
	e.token = ""
	defer func() { e.token = saved }()

	resp := e.do(http.MethodPost, "/ai/rewrite", map[string]interface{}{"text": "Hello"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	drain(resp)
}
