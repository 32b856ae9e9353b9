package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/location/internal/auth"
	"github.com/wolfeidau/location/internal/store"
	memorystore "github.com/wolfeidau/location/internal/store/memory"
)

var testSecret = []byte("server-test-secret-0123456789abcdef")

type testAPI struct {
	t   *testing.T
	srv *httptest.Server
}

type apiResponse struct {
	status int
	header http.Header
	body   []byte
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	mem := memorystore.NewStore()
	return newTestAPIWithStores(t, store.Stores{
		ProfileTypes: mem.ProfileTypes(),
		SiteProfiles: mem.SiteProfiles(),
		Health:       mem,
	})
}

func newTestAPIWithStores(t *testing.T, stores store.Stores) *testAPI {
	t.Helper()

	verifier, err := auth.NewJWTVerifier(auth.VerifierConfig{HMACSecret: testSecret}, nil)
	require.NoError(t, err)

	srv := httptest.NewServer(verifier.Middleware()(NewServer(stores, Config{}).Handler()))
	t.Cleanup(srv.Close)

	return &testAPI{t: t, srv: srv}
}

func tokenFor(t *testing.T, organizationUUID string) string {
	t.Helper()

	token, err := auth.IssueToken(testSecret, "", auth.TokenOptions{
		Subject:          "user-1",
		OrganizationUUID: organizationUUID,
		TTL:              time.Hour,
	})
	require.NoError(t, err)
	return token
}

func (a *testAPI) do(method, path, token string, body any, headers ...string) apiResponse {
	a.t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(a.t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, a.srv.URL+path, reader)
	require.NoError(a.t, err)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)

	return apiResponse{status: resp.StatusCode, header: resp.Header, body: data}
}

func (r apiResponse) object(t *testing.T) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(r.body, &out), string(r.body))
	return out
}

func (r apiResponse) page(t *testing.T) page[map[string]any] {
	t.Helper()
	var out page[map[string]any]
	require.NoError(t, json.Unmarshal(r.body, &out), string(r.body))
	return out
}

func (a *testAPI) createProfileType(token string, body map[string]any) map[string]any {
	a.t.Helper()
	resp := a.do(http.MethodPost, "/profiletypes/", token, body)
	require.Equal(a.t, http.StatusCreated, resp.status, string(resp.body))
	return resp.object(a.t)
}

func (a *testAPI) createSiteProfile(token string, body map[string]any) map[string]any {
	a.t.Helper()
	resp := a.do(http.MethodPost, "/siteprofiles/", token, body)
	require.Equal(a.t, http.StatusCreated, resp.status, string(resp.body))
	return resp.object(a.t)
}

func names(p page[map[string]any]) []string {
	out := make([]string, 0, len(p.Results))
	for _, r := range p.Results {
		out = append(out, r["name"].(string))
	}
	return out
}

func profileTypePath(pt map[string]any) string {
	return fmt.Sprintf("/profiletypes/%d/", int64(pt["id"].(float64)))
}

func siteProfilePath(sp map[string]any) string {
	return fmt.Sprintf("/siteprofiles/%s/", sp["uuid"])
}

func TestOptions(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		path string
		name string
	}{
		{"/profiletypes/", "Profile Type List"},
		{"/profiletypes/1/", "Profile Type Instance"},
		{"/siteprofiles/", "Site Profile List"},
		{"/siteprofiles/" + uuid.NewString() + "/", "Site Profile Instance"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := api.do(http.MethodOptions, tt.path, "", nil)
			require.Equal(t, http.StatusOK, resp.status)
			require.Equal(t, tt.name, resp.object(t)["name"])
		})
	}
}

func TestAccessPolicy(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		status int
		body   string
	}{
		{
			name:   "anonymous list",
			method: http.MethodGet,
			path:   "/profiletypes/",
			status: http.StatusForbidden,
			body:   `{"detail":"Authentication credentials were not provided."}`,
		},
		{
			name:   "anonymous create",
			method: http.MethodPost,
			path:   "/siteprofiles/",
			status: http.StatusForbidden,
			body:   `{"detail":"Authentication credentials were not provided."}`,
		},
		{
			name:   "anonymous delete",
			method: http.MethodDelete,
			path:   "/siteprofiles/" + uuid.NewString() + "/",
			status: http.StatusForbidden,
			body:   `{"detail":"Authentication credentials were not provided."}`,
		},
		{
			name:   "token without organization",
			method: http.MethodGet,
			path:   "/siteprofiles/",
			token:  tokenFor(t, ""),
			status: http.StatusForbidden,
			body:   `{"detail":"Authentication credentials were not provided."}`,
		},
		{
			name:   "malformed organization",
			method: http.MethodGet,
			path:   "/profiletypes/",
			token:  tokenFor(t, "not-a-uuid"),
			status: http.StatusBadRequest,
			body:   `["organization_uuid from JWT Token \"not-a-uuid\" is not a valid UUID."]`,
		},
		{
			name:   "bad signature is anonymous",
			method: http.MethodGet,
			path:   "/profiletypes/",
			token:  "eyJhbGciOiJIUzI1NiJ9.e30.invalid",
			status: http.StatusForbidden,
			body:   `{"detail":"Authentication credentials were not provided."}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := api.do(tt.method, tt.path, tt.token, nil)
			require.Equal(t, tt.status, resp.status)
			require.JSONEq(t, tt.body, string(resp.body))
		})
	}
}

func TestProfileTypes_ListScoping(t *testing.T) {
	api := newTestAPI(t)
	tokenA := tokenFor(t, uuid.NewString())
	tokenB := tokenFor(t, uuid.NewString())

	api.createProfileType(tokenA, map[string]any{"name": "home"})
	api.createProfileType(tokenB, map[string]any{"name": "shipping", "is_global": true})
	api.createProfileType(tokenB, map[string]any{"name": "billing"})

	t.Run("tenant sees own and global", func(t *testing.T) {
		p := api.do(http.MethodGet, "/profiletypes/", tokenA, nil).page(t)
		require.Equal(t, 2, p.Count)
		require.Equal(t, []string{"home", "shipping"}, names(p))
		require.Nil(t, p.Next)
		require.Nil(t, p.Previous)
	})

	t.Run("other tenant does not see home", func(t *testing.T) {
		p := api.do(http.MethodGet, "/profiletypes/", tokenB, nil).page(t)
		require.Equal(t, []string{"billing", "shipping"}, names(p))
	})

	t.Run("global only", func(t *testing.T) {
		p := api.do(http.MethodGet, "/profiletypes/?is_global=True", tokenA, nil).page(t)
		require.Equal(t, []string{"shipping"}, names(p))
	})

	t.Run("is_global false keeps the union", func(t *testing.T) {
		p := api.do(http.MethodGet, "/profiletypes/?is_global=false", tokenA, nil).page(t)
		require.Equal(t, []string{"home", "shipping"}, names(p))
	})

	t.Run("ordering by name desc", func(t *testing.T) {
		p := api.do(http.MethodGet, "/profiletypes/?ordering=-name", tokenA, nil).page(t)
		require.Equal(t, []string{"shipping", "home"}, names(p))
	})

	t.Run("unknown ordering falls back to name", func(t *testing.T) {
		p := api.do(http.MethodGet, "/profiletypes/?ordering=bogus", tokenA, nil).page(t)
		require.Equal(t, []string{"home", "shipping"}, names(p))
	})

	t.Run("empty tenant list", func(t *testing.T) {
		p := api.do(http.MethodGet, "/profiletypes/?is_global=false", tokenFor(t, uuid.NewString()), nil).page(t)
		require.Equal(t, []string{"shipping"}, names(p))
	})
}

func TestProfileTypes_Create(t *testing.T) {
	api := newTestAPI(t)
	tenant := uuid.NewString()
	token := tokenFor(t, tenant)

	t.Run("organization is taken from the token", func(t *testing.T) {
		pt := api.createProfileType(token, map[string]any{
			"name":              "warehouse",
			"organization_uuid": uuid.NewString(),
		})
		require.Equal(t, tenant, pt["organization_uuid"])
		require.Equal(t, false, pt["is_global"])
		require.NotZero(t, pt["id"])
		require.NotEmpty(t, pt["create_date"])
	})

	t.Run("missing name", func(t *testing.T) {
		resp := api.do(http.MethodPost, "/profiletypes/", token, map[string]any{"is_global": true})
		require.Equal(t, http.StatusBadRequest, resp.status)
		require.JSONEq(t, `{"name":["This field is required."]}`, string(resp.body))
	})

	t.Run("blank name", func(t *testing.T) {
		resp := api.do(http.MethodPost, "/profiletypes/", token, map[string]any{"name": "   "})
		require.Equal(t, http.StatusBadRequest, resp.status)
		require.JSONEq(t, `{"name":["This field may not be blank."]}`, string(resp.body))
	})

	t.Run("malformed json", func(t *testing.T) {
		resp := api.do(http.MethodPost, "/profiletypes/", token, `{"name":`)
		require.Equal(t, http.StatusBadRequest, resp.status)
		require.Contains(t, resp.object(t)["detail"], "JSON parse error")
	})

	t.Run("wrong type", func(t *testing.T) {
		resp := api.do(http.MethodPost, "/profiletypes/", token, `{"name":"x","is_global":"maybe"}`)
		require.Equal(t, http.StatusBadRequest, resp.status)
		require.Contains(t, resp.object(t), "is_global")
	})
}

func TestProfileTypes_Instance(t *testing.T) {
	api := newTestAPI(t)
	tenant := uuid.NewString()
	token := tokenFor(t, tenant)
	other := tokenFor(t, uuid.NewString())

	pt := api.createProfileType(token, map[string]any{"name": "home", "is_global": true})
	path := profileTypePath(pt)

	t.Run("retrieve", func(t *testing.T) {
		resp := api.do(http.MethodGet, path, token, nil)
		require.Equal(t, http.StatusOK, resp.status)
		require.Equal(t, "home", resp.object(t)["name"])
	})

	t.Run("other tenant gets not found", func(t *testing.T) {
		for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodDelete} {
			resp := api.do(method, path, other, map[string]any{"name": "stolen"})
			require.Equal(t, http.StatusNotFound, resp.status, method)
			require.JSONEq(t, `{"detail":"Not found."}`, string(resp.body))
		}
	})

	t.Run("unknown and malformed ids", func(t *testing.T) {
		require.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/profiletypes/999999/", token, nil).status)
		require.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/profiletypes/abc/", token, nil).status)
	})

	t.Run("partial update keeps other fields", func(t *testing.T) {
		resp := api.do(http.MethodPatch, path, token, map[string]any{"name": "house"})
		require.Equal(t, http.StatusOK, resp.status, string(resp.body))
		got := resp.object(t)
		require.Equal(t, "house", got["name"])
		require.Equal(t, true, got["is_global"])
		require.Equal(t, pt["create_date"], got["create_date"])
	})

	t.Run("full update keeps omitted fields", func(t *testing.T) {
		resp := api.do(http.MethodPut, path, token, map[string]any{
			"name":              "flat",
			"organization_uuid": uuid.NewString(),
		})
		require.Equal(t, http.StatusOK, resp.status, string(resp.body))
		got := resp.object(t)
		require.Equal(t, "flat", got["name"])
		require.Equal(t, true, got["is_global"])
		require.Equal(t, tenant, got["organization_uuid"])

		shared := api.do(http.MethodGet, "/profiletypes/?is_global=true", other, nil).page(t)
		require.Contains(t, names(shared), "flat")
	})

	t.Run("full update requires name", func(t *testing.T) {
		resp := api.do(http.MethodPut, path, token, map[string]any{})
		require.Equal(t, http.StatusBadRequest, resp.status)
		require.JSONEq(t, `{"name":["This field is required."]}`, string(resp.body))
	})

	t.Run("delete", func(t *testing.T) {
		require.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, path, token, nil).status)
		require.Equal(t, http.StatusNotFound, api.do(http.MethodGet, path, token, nil).status)
	})
}

func TestProfileTypes_GlobalNotAddressableByOthers(t *testing.T) {
	api := newTestAPI(t)
	owner := tokenFor(t, uuid.NewString())
	other := tokenFor(t, uuid.NewString())

	pt := api.createProfileType(owner, map[string]any{"name": "shared", "is_global": true})

	require.Equal(t, http.StatusNotFound, api.do(http.MethodGet, profileTypePath(pt), other, nil).status)

	// ...but it can still be referenced.
	sp := api.createSiteProfile(other, map[string]any{"name": "depot", "profiletype": pt["id"]})
	require.Equal(t, pt["id"], sp["profiletype"])
}

func TestProfileTypes_DeleteCascades(t *testing.T) {
	api := newTestAPI(t)
	token := tokenFor(t, uuid.NewString())

	pt := api.createProfileType(token, map[string]any{"name": "billing"})
	sp := api.createSiteProfile(token, map[string]any{"city": "Berlin", "profiletype": pt["id"]})

	require.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, profileTypePath(pt), token, nil).status)
	require.Equal(t, http.StatusNotFound, api.do(http.MethodGet, siteProfilePath(sp), token, nil).status)
}

func TestSiteProfiles_Create(t *testing.T) {
	api := newTestAPI(t)
	tenant := uuid.NewString()
	token := tokenFor(t, tenant)
	foreign := api.createProfileType(tokenFor(t, uuid.NewString()), map[string]any{"name": "private"})
	own := api.createProfileType(token, map[string]any{"name": "home"})

	t.Run("minimal", func(t *testing.T) {
		sp := api.createSiteProfile(token, map[string]any{"country": "ES"})
		require.Equal(t, "ES", sp["country"])
		require.Equal(t, sp["uuid"], sp["id"])
		require.Equal(t, tenant, sp["organization_uuid"])
		require.Equal(t, "0.0000000000000000", sp["latitude"])
		require.Equal(t, "0.0000000000000000", sp["longitude"])
		require.Nil(t, sp["workflowlevel2_uuid"])
		require.Nil(t, sp["profiletype"])

		_, err := uuid.Parse(sp["uuid"].(string))
		require.NoError(t, err)
	})

	t.Run("full", func(t *testing.T) {
		wfl2 := []any{uuid.NewString(), uuid.NewString()}
		sp := api.createSiteProfile(token, map[string]any{
			"uuid":                  uuid.NewString(),
			"name":                  "Office",
			"profiletype":           own["id"],
			"address_line1":         "Invalidenstrasse 117",
			"postcode":              "10115",
			"city":                  "Berlin",
			"country":               "de",
			"administrative_level1": "Berlin",
			"latitude":              "52.5297",
			"longitude":             13.384,
			"notes":                 "Ring twice",
			"organization_uuid":     uuid.NewString(),
			"workflowlevel2_uuid":   wfl2,
		})
		require.NotEqual(t, sp["id"], "")
		require.Equal(t, "DE", sp["country"])
		require.Equal(t, own["id"], sp["profiletype"])
		require.Equal(t, "52.5297000000000000", sp["latitude"])
		require.Equal(t, "13.3840000000000000", sp["longitude"])
		require.Equal(t, tenant, sp["organization_uuid"])
		require.Equal(t, wfl2, sp["workflowlevel2_uuid"])
	})

	t.Run("client uuid is ignored", func(t *testing.T) {
		clientID := uuid.NewString()
		sp := api.createSiteProfile(token, map[string]any{"name": "x", "uuid": clientID, "id": clientID})
		require.NotEqual(t, clientID, sp["uuid"])
	})

	t.Run("profiletype of another organization", func(t *testing.T) {
		resp := api.do(http.MethodPost, "/siteprofiles/", token, map[string]any{
			"name":        "x",
			"profiletype": foreign["id"],
		})
		require.Equal(t, http.StatusBadRequest, resp.status)
		require.JSONEq(t, `{"profiletype":["Invalid ProfileType. It should belong to your organization"]}`, string(resp.body))
	})

	t.Run("unknown profiletype", func(t *testing.T) {
		resp := api.do(http.MethodPost, "/siteprofiles/", token, map[string]any{
			"name":        "x",
			"profiletype": 987654,
		})
		require.Equal(t, http.StatusBadRequest, resp.status)
		require.JSONEq(t, `{"profiletype":["Invalid pk \"987654\" - object does not exist."]}`, string(resp.body))
	})

	t.Run("no identifying field", func(t *testing.T) {
		resp := api.do(http.MethodPost, "/siteprofiles/", token, map[string]any{"postcode": "10115", "notes": "n"})
		require.Equal(t, http.StatusBadRequest, resp.status)
		require.JSONEq(t, `{"non_field_errors":["One of name, country, city, latitude, longitude, address_line1, address_line2, address_line3, address_line4 must be defined."]}`, string(resp.body))
	})

	t.Run("profiletype as a numeric string", func(t *testing.T) {
		sp := api.createSiteProfile(token, map[string]any{
			"name":        "x",
			"profiletype": fmt.Sprint(own["id"]),
		})
		require.Equal(t, own["id"], sp["profiletype"])
	})

	t.Run("profiletype of the wrong type", func(t *testing.T) {
		resp := api.do(http.MethodPost, "/siteprofiles/", token, map[string]any{"name": "x", "profiletype": "home"})
		require.Equal(t, http.StatusBadRequest, resp.status)
		require.JSONEq(t, `{"profiletype":["Incorrect type. Expected pk value, received str."]}`, string(resp.body))
	})

	t.Run("malformed coordinate", func(t *testing.T) {
		resp := api.do(http.MethodPost, "/siteprofiles/", token, `{"name":"x","latitude":"abc"}`)
		require.Equal(t, http.StatusBadRequest, resp.status)
		require.JSONEq(t, `{"latitude":["A valid number is required."]}`, string(resp.body))
	})

	t.Run("field rules", func(t *testing.T) {
		resp := api.do(http.MethodPost, "/siteprofiles/", token, map[string]any{
			"name":     "x",
			"country":  "XX",
			"postcode": strings.Repeat("1", 21),
			"latitude": "1.12345678901234567",
		})
		require.Equal(t, http.StatusBadRequest, resp.status)
		errs := resp.object(t)
		require.Equal(t, []any{`"XX" is not a valid choice.`}, errs["country"])
		require.Equal(t, []any{"Ensure this field has no more than 20 characters."}, errs["postcode"])
		require.Equal(t, []any{"Ensure that there are no more than 16 decimal places."}, errs["latitude"])
	})
}

func TestSiteProfiles_Instance(t *testing.T) {
	api := newTestAPI(t)
	tenant := uuid.NewString()
	token := tokenFor(t, tenant)
	other := tokenFor(t, uuid.NewString())

	sp := api.createSiteProfile(token, map[string]any{
		"name":                "Office",
		"city":                "Madrid",
		"workflowlevel2_uuid": []string{"a"},
	})
	path := siteProfilePath(sp)

	t.Run("retrieve", func(t *testing.T) {
		resp := api.do(http.MethodGet, path, token, nil)
		require.Equal(t, http.StatusOK, resp.status)
		require.Equal(t, "Office", resp.object(t)["name"])
	})

	t.Run("other tenant gets not found", func(t *testing.T) {
		for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodDelete} {
			resp := api.do(method, path, other, map[string]any{"name": "stolen"})
			require.Equal(t, http.StatusNotFound, resp.status, method)
		}
	})

	t.Run("malformed uuid", func(t *testing.T) {
		require.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/siteprofiles/nope/", token, nil).status)
	})

	t.Run("partial update", func(t *testing.T) {
		resp := api.do(http.MethodPatch, path, token, map[string]any{"city": "Sevilla"})
		require.Equal(t, http.StatusOK, resp.status, string(resp.body))
		got := resp.object(t)
		require.Equal(t, "Sevilla", got["city"])
		require.Equal(t, "Office", got["name"])
		require.Equal(t, []any{"a"}, got["workflowlevel2_uuid"])
		require.Equal(t, sp["create_date"], got["create_date"])
	})

	t.Run("partial update checks the merged record", func(t *testing.T) {
		resp := api.do(http.MethodPatch, path, token, map[string]any{"name": "", "city": ""})
		require.Equal(t, http.StatusBadRequest, resp.status)
		require.Contains(t, resp.object(t), "non_field_errors")
	})

	t.Run("full update", func(t *testing.T) {
		resp := api.do(http.MethodPut, path, token, map[string]any{"country": "PT"})
		require.Equal(t, http.StatusOK, resp.status, string(resp.body))
		got := resp.object(t)
		require.Equal(t, sp["uuid"], got["uuid"])
		require.Equal(t, "PT", got["country"])
		require.Equal(t, "Office", got["name"])
		require.Equal(t, "Sevilla", got["city"])
		require.Equal(t, []any{"a"}, got["workflowlevel2_uuid"])
	})

	t.Run("full update keeps omitted fields", func(t *testing.T) {
		pt := api.createProfileType(token, map[string]any{"name": "billing"})
		office := api.createSiteProfile(token, map[string]any{
			"name":                "a",
			"city":                "Berlin",
			"address_line1":       "Invalidenstrasse 117",
			"profiletype":         pt["id"],
			"workflowlevel2_uuid": []string{"w1"},
		})

		resp := api.do(http.MethodPut, siteProfilePath(office), token, map[string]any{"name": "b", "country": "ES"})
		require.Equal(t, http.StatusOK, resp.status, string(resp.body))
		got := resp.object(t)
		require.Equal(t, "b", got["name"])
		require.Equal(t, "ES", got["country"])
		require.Equal(t, "Berlin", got["city"])
		require.Equal(t, "Invalidenstrasse 117", got["address_line1"])
		require.Equal(t, pt["id"], got["profiletype"])
		require.Equal(t, []any{"w1"}, got["workflowlevel2_uuid"])

		stored := api.do(http.MethodGet, siteProfilePath(office), token, nil).object(t)
		require.Equal(t, "Berlin", stored["city"])
	})

	t.Run("writes keep the caller's organization", func(t *testing.T) {
		for _, method := range []string{http.MethodPut, http.MethodPatch} {
			resp := api.do(method, path, token, map[string]any{
				"name":              "Office",
				"organization_uuid": uuid.NewString(),
			})
			require.Equal(t, http.StatusOK, resp.status, method)
			require.Equal(t, tenant, resp.object(t)["organization_uuid"], method)

			stored := api.do(http.MethodGet, path, token, nil)
			require.Equal(t, http.StatusOK, stored.status, method)
			require.Equal(t, tenant, stored.object(t)["organization_uuid"], method)
		}
	})

	t.Run("full update needs an identifying field", func(t *testing.T) {
		resp := api.do(http.MethodPut, path, token, map[string]any{"notes": "only notes"})
		require.Equal(t, http.StatusBadRequest, resp.status)
		require.Contains(t, resp.object(t), "non_field_errors")
	})

	t.Run("delete", func(t *testing.T) {
		require.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, path, token, nil).status)
		require.Equal(t, http.StatusNotFound, api.do(http.MethodDelete, path, token, nil).status)
	})
}

func TestSiteProfiles_Pagination(t *testing.T) {
	api := newTestAPI(t)
	token := tokenFor(t, uuid.NewString())

	for i := range 51 {
		api.createSiteProfile(token, map[string]any{"name": fmt.Sprintf("site %02d", i)})
	}

	forwarded := []string{"X-Forwarded-Proto", "http", "X-Forwarded-Host", "example.com"}

	first := api.do(http.MethodGet, "/siteprofiles/", token, nil, forwarded...).page(t)
	require.Equal(t, 51, first.Count)
	require.Len(t, first.Results, 50)
	require.NotNil(t, first.Next)
	require.Equal(t, "http://example.com/siteprofiles/?limit=50&offset=50", *first.Next)
	require.Nil(t, first.Previous)

	second := api.do(http.MethodGet, "/siteprofiles/?limit=50&offset=50", token, nil, forwarded...).page(t)
	require.Len(t, second.Results, 1)
	require.Equal(t, "site 50", second.Results[0]["name"])
	require.Nil(t, second.Next)
	require.NotNil(t, second.Previous)
	require.Equal(t, "http://example.com/siteprofiles/?limit=50", *second.Previous)

	small := api.do(http.MethodGet, "/siteprofiles/?limit=10&offset=20&ordering=-name", token, nil, forwarded...).page(t)
	require.Len(t, small.Results, 10)
	require.Equal(t, "site 30", small.Results[0]["name"])
	require.Equal(t, "http://example.com/siteprofiles/?limit=10&offset=30&ordering=-name", *small.Next)
	require.Equal(t, "http://example.com/siteprofiles/?limit=10&offset=10&ordering=-name", *small.Previous)

	capped := api.do(http.MethodGet, "/siteprofiles/?limit=5000", token, nil).page(t)
	require.Len(t, capped.Results, 51)
	require.Nil(t, capped.Next)

	beyond := api.do(http.MethodGet, fmt.Sprintf("/siteprofiles/?offset=%d", math.MaxInt), token, nil, forwarded...).page(t)
	require.Equal(t, 51, beyond.Count)
	require.Empty(t, beyond.Results)
	require.Nil(t, beyond.Next)
	require.NotNil(t, beyond.Previous)
	require.Equal(t, fmt.Sprintf("http://example.com/siteprofiles/?limit=50&offset=%d", math.MaxInt-1000-50), *beyond.Previous)
}

func TestSiteProfiles_Filters(t *testing.T) {
	api := newTestAPI(t)
	token := tokenFor(t, uuid.NewString())
	otherToken := tokenFor(t, uuid.NewString())

	pt := api.createProfileType(token, map[string]any{"name": "billing"})
	wflA, wflB, wflC := uuid.NewString(), uuid.NewString(), uuid.NewString()

	berlin := api.createSiteProfile(token, map[string]any{
		"name":                "A",
		"address_line1":       "Invalidenstrasse 117",
		"postcode":            "10115",
		"city":                "Berlin",
		"profiletype":         pt["id"],
		"workflowlevel2_uuid": []string{wflA},
	})
	madrid := api.createSiteProfile(token, map[string]any{
		"name":                "B",
		"address_line1":       "Gran Via 1",
		"postcode":            "28013",
		"city":                "Madrid",
		"workflowlevel2_uuid": []string{wflB, wflC},
	})
	api.createSiteProfile(token, map[string]any{"name": "C", "city": "Lisbon"})
	api.createSiteProfile(otherToken, map[string]any{"name": "D", "city": "Berlin", "workflowlevel2_uuid": []string{wflA}})

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"no filter", "", []string{"A", "B", "C"}},
		{"profiletype", fmt.Sprintf("?profiletype__id=%d", int64(pt["id"].(float64))), []string{"A"}},
		{"uuid list", fmt.Sprintf("?uuid=%s,%s", berlin["uuid"], madrid["uuid"]), []string{"A", "B"}},
		{"workflowlevel2 any of", fmt.Sprintf("?workflowlevel2_uuid=%s,%s", wflA, wflC), []string{"A", "B"}},
		{"workflowlevel2 repeated", fmt.Sprintf("?workflowlevel2_uuid=%s&workflowlevel2_uuid=%s", wflB, wflA), []string{"A", "B"}},
		{"search city case insensitive", "?search=berLIN", []string{"A"}},
		{"search postcode", "?search=2801", []string{"B"}},
		{"search all terms must match", "?search=gran+madrid", []string{"B"}},
		{"search no match", "?search=berlin+28013", []string{}},
		{"ordering", "?ordering=-city", []string{"B", "C", "A"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := api.do(http.MethodGet, "/siteprofiles/"+tt.query, token, nil)
			require.Equal(t, http.StatusOK, resp.status, string(resp.body))
			require.Equal(t, tt.want, names(resp.page(t)))
		})
	}

	t.Run("invalid uuid filter", func(t *testing.T) {
		resp := api.do(http.MethodGet, "/siteprofiles/?uuid=nope", token, nil)
		require.Equal(t, http.StatusBadRequest, resp.status)
		require.Contains(t, resp.object(t), "uuid")
	})
}

type failingPinger struct{}

func (failingPinger) Ping(ctx context.Context) error {
	return errors.New("connection refused")
}

func TestHealthCheck(t *testing.T) {
	api := newTestAPI(t)
	resp := api.do(http.MethodGet, "/health_check/", "", nil)
	require.Equal(t, http.StatusOK, resp.status)
	require.JSONEq(t, `{"status":"ok"}`, string(resp.body))

	mem := memorystore.NewStore()
	down := newTestAPIWithStores(t, store.Stores{
		ProfileTypes: mem.ProfileTypes(),
		SiteProfiles: mem.SiteProfiles(),
		Health:       failingPinger{},
	})
	resp = down.do(http.MethodGet, "/health_check/", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, resp.status)
}

func TestDocsMounted(t *testing.T) {
	api := newTestAPI(t)
	resp := api.do(http.MethodGet, "/docs/swagger.json", "", nil)
	require.Equal(t, http.StatusOK, resp.status)
	require.Equal(t, "Location Service API", resp.object(t)["info"].(map[string]any)["title"])
}

func TestMethodNotAllowed(t *testing.T) {
	api := newTestAPI(t)
	resp := api.do(http.MethodPost, "/profiletypes/1/", tokenFor(t, uuid.NewString()), nil)
	require.Equal(t, http.StatusMethodNotAllowed, resp.status)
}

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	require.Equal(t, 50, cfg.DefaultPageSize)
	require.Equal(t, 1000, cfg.MaxPageSize)

	cfg = Config{DefaultPageSize: 200, MaxPageSize: 100}
	cfg.ApplyDefaults()
	require.Equal(t, 100, cfg.DefaultPageSize)
}
