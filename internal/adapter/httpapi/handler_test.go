package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eslsoft/jamdict/internal/entity"
	"github.com/eslsoft/jamdict/internal/repository"
	"github.com/eslsoft/jamdict/internal/usecase"
)

type stubLookup struct {
	usecase.LookupUsecase

	query   string
	opts    usecase.LookupOptions
	err     error
	noNames bool
}

func (s *stubLookup) Lookup(_ context.Context, query string, opts usecase.LookupOptions) (*entity.LookupResult, error) {
	s.query, s.opts = query, opts
	if s.err != nil {
		return nil, s.err
	}
	return &entity.LookupResult{Entries: []*entity.Entry{{Idseq: 1002550}}}, nil
}

func (s *stubLookup) GetEntry(_ context.Context, idseq int64) (*entity.Entry, error) {
	if idseq != 1002550 {
		return nil, entity.ErrEntryNotFound
	}
	return &entity.Entry{Idseq: idseq}, nil
}

func (s *stubLookup) GetName(_ context.Context, idseq int64) (*entity.Entry, error) {
	return nil, entity.ErrBackendUnavailable
}

func (s *stubLookup) GetChar(_ context.Context, literal string) (*entity.Character, error) {
	if literal != "土" {
		return nil, entity.ErrCharacterNotFound
	}
	return &entity.Character{Literal: literal, StrokeCount: 3}, nil
}

func (s *stubLookup) ComponentsOf(char string) ([]string, error) {
	return []string{char}, nil
}

func (s *stubLookup) CharactersWith(component string) ([]string, error) {
	return []string{"土", "産"}, nil
}

func (s *stubLookup) AllPOS(context.Context) ([]string, error) {
	return []string{"noun (common) (futsuumeishi)"}, nil
}

func (s *stubLookup) AllNameTypes(context.Context) ([]string, error) {
	if s.noNames {
		return nil, entity.ErrBackendUnavailable
	}
	return []string{"surname"}, nil
}

func (s *stubLookup) Info(context.Context) (*usecase.DictionaryInfo, error) {
	return &usecase.DictionaryInfo{Counts: map[string]int64{entity.SourceJMdict: 7}}, nil
}

func serve(t *testing.T, uc usecase.LookupUsecase, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	logger, _ := test.NewNullLogger()
	rec := httptest.NewRecorder()
	NewHandler(uc, logger).Routes().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestLookupGet(t *testing.T) {
	uc := &stubLookup{}
	rec := serve(t, uc, httptest.NewRequest(http.MethodGet, "/api/lookup?"+url.Values{
		"q":      {"お%げ"},
		"strict": {"true"},
		"chars":  {"false"},
		"pos":    {"a", "b"},
		"mode":   {"exact"},
	}.Encode(), nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "お%げ", uc.query)
	assert.True(t, uc.opts.Strict)
	assert.True(t, uc.opts.NoChars)
	assert.False(t, uc.opts.NoNames)
	assert.Equal(t, []string{"a", "b"}, uc.opts.POS.Values)
	assert.False(t, uc.opts.POS.Bare)

	res := decode[entity.LookupResult](t, rec)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, int64(1002550), res.Entries[0].Idseq)
}

func TestLookupGet_BadParams(t *testing.T) {
	for _, target := range []string{
		"/api/lookup?q=x&strict=maybe",
		"/api/lookup?q=x&names=2",
		"/api/lookup?q=x&mode=fuzzy",
		"/api/lookup?q=x&filter=" + url.QueryEscape(`gloss == "gift"`),
	} {
		rec := serve(t, &stubLookup{}, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.NotEmpty(t, decode[map[string]string](t, rec)["error"], target)
	}
}

func TestLookupFilter(t *testing.T) {
	uc := &stubLookup{}
	body := `{"query":"みやげ","pos":"n","filter":"pos in ['vi', 'vt'] && mode == 'exact'"}`
	rec := serve(t, uc, httptest.NewRequest(http.MethodPost, "/api/lookup", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"n", "vi", "vt"}, uc.opts.POS.Values)
	assert.Equal(t, repository.MatchExact, uc.opts.Mode)

	q := url.Values{"q": {"鈴木"}, "filter": {`name_type == "surname"`}}
	rec = serve(t, uc, httptest.NewRequest(http.MethodGet, "/api/lookup?"+q.Encode(), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"surname"}, uc.opts.NameTypes.Values)
}

func TestLookupPost(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantPOS  []string
		wantBare bool
	}{
		{"list", `{"query":"みやげ","pos":["noun (common) (futsuumeishi)"]}`, []string{"noun (common) (futsuumeishi)"}, false},
		{"string", `{"query":"みやげ","pos":"noun (common) (futsuumeishi)"}`, []string{"noun (common) (futsuumeishi)"}, true},
		{"none", `{"query":"みやげ","names":false}`, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &stubLookup{}
			rec := serve(t, uc, httptest.NewRequest(http.MethodPost, "/api/lookup", strings.NewReader(tt.body)))
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "みやげ", uc.query)
			assert.Equal(t, tt.wantPOS, uc.opts.POS.Values)
			assert.Equal(t, tt.wantBare, uc.opts.POS.Bare)
		})
	}

	rec := serve(t, &stubLookup{}, httptest.NewRequest(http.MethodPost, "/api/lookup", strings.NewReader(`{"pos":[1]}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = serve(t, &stubLookup{}, httptest.NewRequest(http.MethodPost, "/api/lookup", strings.NewReader(`{`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLookup_ErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{entity.ErrEmptyQuery, http.StatusBadRequest},
		{entity.ErrBackendUnavailable, http.StatusServiceUnavailable},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		rec := serve(t, &stubLookup{err: tt.err}, httptest.NewRequest(http.MethodGet, "/api/lookup", nil))
		assert.Equal(t, tt.want, rec.Code, tt.err.Error())
	}
}

func TestEntryAndName(t *testing.T) {
	rec := serve(t, &stubLookup{}, httptest.NewRequest(http.MethodGet, "/api/entry/1002550", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1002550), decode[entity.Entry](t, rec).Idseq)

	rec = serve(t, &stubLookup{}, httptest.NewRequest(http.MethodGet, "/api/entry/id%231002550", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, &stubLookup{}, httptest.NewRequest(http.MethodGet, "/api/entry/42", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(t, &stubLookup{}, httptest.NewRequest(http.MethodGet, "/api/entry/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, &stubLookup{}, httptest.NewRequest(http.MethodGet, "/api/name/5000000", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCharAndRadical(t *testing.T) {
	rec := serve(t, &stubLookup{}, httptest.NewRequest(http.MethodGet, "/api/char/"+url.PathEscape("土"), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "土", body["literal"])
	assert.Equal(t, float64(3), body["stroke_count"])
	assert.Equal(t, []any{"土"}, body["components"])

	rec = serve(t, &stubLookup{}, httptest.NewRequest(http.MethodGet, "/api/char/"+url.PathEscape("あ"), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(t, &stubLookup{}, httptest.NewRequest(http.MethodGet, "/api/radical/"+url.PathEscape("土"), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	rad := decode[RadicalResponse](t, rec)
	assert.Equal(t, []string{"土", "産"}, rad.Characters)
}

func TestInfoAndPOS(t *testing.T) {
	rec := serve(t, &stubLookup{}, httptest.NewRequest(http.MethodGet, "/api/info", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), decode[usecase.DictionaryInfo](t, rec).Counts[entity.SourceJMdict])

	rec = serve(t, &stubLookup{}, httptest.NewRequest(http.MethodGet, "/api/pos", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"surname"}, decode[POSResponse](t, rec).NameTypes)

	rec = serve(t, &stubLookup{noNames: true}, httptest.NewRequest(http.MethodGet, "/api/pos", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "name_types")
}

func TestMethodNotAllowed(t *testing.T) {
	rec := serve(t, &stubLookup{}, httptest.NewRequest(http.MethodDelete, "/api/info", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
