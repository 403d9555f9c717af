package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"doc-compliance-checker/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLanguageToolServer(t *testing.T, checkStatus int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/languages", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]string{
			{"name": "English (US)", "code": "en", "longCode": "en-US"},
		})
	})
	mux.HandleFunc("/v2/check", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "en-US", r.PostForm.Get("language"))
		if checkStatus != http.StatusOK {
			w.WriteHeader(checkStatus)
			return
		}
		_, _ = w.Write([]byte(`{"matches":[
			{"message":"Possible agreement error.","offset":14,"length":4,
			 "replacements":[{"value":"has"}],
			 "context":{"text":"This document have errors.","offset":14,"length":4},
			 "rule":{"id":"HE_VERB_AGR"}},
			{"message":"Possible spelling mistake found.","offset":20,"length":6,
			 "replacements":[],
			 "context":{"text":"have errrors.","offset":5,"length":7},
			 "rule":{"id":"MORFOLOGIK_RULE_EN_US"}}
		]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestGrammarService_Check(t *testing.T) {
	srv := newLanguageToolServer(t, http.StatusOK)
	svc := NewGrammarService(config.GrammarConfig{URL: srv.URL, Language: "en-US", Timeout: 5 * time.Second})
	require.True(t, svc.Enabled())

	findings := svc.Check(context.Background(), "This document have errrors.")
	require.Len(t, findings, 2)

	assert.Equal(t, "HE_VERB_AGR", findings[0].RuleID)
	assert.Equal(t, "Possible agreement error.", findings[0].Message)
	assert.Equal(t, "This document have errors.", findings[0].Context)
	assert.Equal(t, 14, findings[0].Offset)
	assert.Equal(t, 4, findings[0].Length)
	assert.Equal(t, []string{"has"}, findings[0].Replacements)

	assert.Equal(t, "MORFOLOGIK_RULE_EN_US", findings[1].RuleID)
	assert.Empty(t, findings[1].Replacements)
}

func TestGrammarService_Unconfigured(t *testing.T) {
	svc := NewGrammarService(config.GrammarConfig{})
	assert.False(t, svc.Enabled())

	findings := svc.Check(context.Background(), "anything")
	assert.NotNil(t, findings)
	assert.Empty(t, findings)
}

func TestGrammarService_UnreachableAtStartup(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	svc := NewGrammarService(config.GrammarConfig{URL: srv.URL, Timeout: time.Second})
	assert.False(t, svc.Enabled())
	assert.Empty(t, svc.Check(context.Background(), "anything"))
}

func TestGrammarService_CheckFailureDegrades(t *testing.T) {
	srv := newLanguageToolServer(t, http.StatusInternalServerError)
	svc := NewGrammarService(config.GrammarConfig{URL: srv.URL, Language: "en-US", Timeout: 5 * time.Second})
	require.True(t, svc.Enabled())

	findings := svc.Check(context.Background(), "text")
	assert.NotNil(t, findings)
	assert.Empty(t, findings)
}
