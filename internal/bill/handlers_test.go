package bill_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-rateio/internal/bill"
	"github.com/noah-isme/backend-rateio/internal/common"
)

type billEnvelope struct {
	Data struct {
		ID            uuid.UUID `json:"id"`
		Establishment string    `json:"establishment"`
		Total         string    `json:"total"`
		Status        string    `json:"status"`
		ImageURL      string    `json:"image_url"`
	} `json:"data"`
}

type itemEnvelope struct {
	Data struct {
		ID           uuid.UUID  `json:"id"`
		SplitGroupID *uuid.UUID `json:"split_group_id"`
		Friend       string     `json:"friend"`
		Value        string     `json:"value"`
	} `json:"data"`
}

type itemsEnvelope struct {
	Data []struct {
		ID           uuid.UUID  `json:"id"`
		SplitGroupID *uuid.UUID `json:"split_group_id"`
		Friend       string     `json:"friend"`
		Value        string     `json:"value"`
	} `json:"data"`
}

type summaryEnvelope struct {
	Data struct {
		Base    string `json:"base"`
		Tax     string `json:"tax"`
		Total   string `json:"total"`
		Friends []struct {
			Friend string `json:"friend"`
			Base   string `json:"base"`
			Tax    string `json:"tax"`
			Total  string `json:"total"`
		} `json:"friends"`
	} `json:"data"`
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newTestRouter(svc *bill.Service, principal common.Principal) http.Handler {
	handler := &bill.Handler{Service: svc}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := common.WithPrincipal(req.Context(), principal)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Route("/bills", func(b chi.Router) {
		b.Post("/", handler.Create)
		b.Route("/{billId}", func(child chi.Router) {
			child.Get("/", handler.Get)
			child.Delete("/", handler.Delete)
			child.Put("/finish", handler.Finish)
			child.Put("/image", handler.SetImage)
			child.Get("/calculate", handler.Calculate)
			child.Get("/consumption", handler.Consumption)
			child.Route("/items", func(items chi.Router) {
				items.Get("/", handler.ListItems)
				items.Post("/", handler.AddItem)
				items.Post("/split", handler.AddSplit)
				items.Get("/{itemId}", handler.GetItem)
				items.Delete("/{itemId}", handler.RemoveItem)
			})
		})
	})
	return r
}

func doJSON(t *testing.T, router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestBillEndpoints(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	owner := uuid.New()
	router := newTestRouter(svc, ownerPrincipal(owner))

	rec := doJSON(t, router, http.MethodPost, "/bills", `{"establishment":"Joe's"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created billEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, "Joe's", created.Data.Establishment)
	require.Equal(t, "0.00", created.Data.Total)
	require.Equal(t, "OPEN", created.Data.Status)

	billID := created.Data.ID
	base := fmt.Sprintf("/bills/%s", billID)

	rec = doJSON(t, router, http.MethodPost, base+"/items", `{"friend":"Ana","description":"Pizza","value":"40.00"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var item itemEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))
	require.Equal(t, "40.00", item.Data.Value)
	require.Nil(t, item.Data.SplitGroupID)

	rec = doJSON(t, router, http.MethodPost, base+"/items", `{"friend":"Bea","description":"Pasta","value":"60.00"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var fetched billEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	require.Equal(t, "100.00", fetched.Data.Total)

	rec = doJSON(t, router, http.MethodGet, base+"/calculate", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var summary summaryEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	require.Equal(t, "100.00", summary.Data.Base)
	require.Equal(t, "10.00", summary.Data.Tax)
	require.Equal(t, "110.00", summary.Data.Total)
	require.Len(t, summary.Data.Friends, 2)
	require.Equal(t, "Ana", summary.Data.Friends[0].Friend)
	require.Equal(t, "44.00", summary.Data.Friends[0].Total)

	rec = doJSON(t, router, http.MethodGet, base+"/consumption?friend=Ana", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var consumption summaryEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &consumption))
	require.Equal(t, "40.00", consumption.Data.Base)
	require.Equal(t, "44.00", consumption.Data.Total)

	rec = doJSON(t, router, http.MethodPut, base+"/image", `{"image_url":"https://img.example/r.png"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var withImage billEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &withImage))
	require.Equal(t, "https://img.example/r.png", withImage.Data.ImageURL)

	rec = doJSON(t, router, http.MethodPut, base+"/finish", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var finished billEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &finished))
	require.Equal(t, "FINISHED", finished.Data.Status)
}

func TestSplitEndpoints(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	owner := uuid.New()
	router := newTestRouter(svc, ownerPrincipal(owner))

	rec := doJSON(t, router, http.MethodPost, "/bills", `{"establishment":"Joe's"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created billEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	base := fmt.Sprintf("/bills/%s", created.Data.ID)

	rec = doJSON(t, router, http.MethodPost, base+"/items/split", `{
		"description": "Wine",
		"allocations": [
			{"friend": "Ana", "value": "15.00"},
			{"friend": "Bea", "value": "15.00"}
		]
	}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var batch itemsEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &batch))
	require.Len(t, batch.Data, 2)
	require.NotNil(t, batch.Data[0].SplitGroupID)
	require.Equal(t, batch.Data[0].SplitGroupID, batch.Data[1].SplitGroupID)

	t.Run("delete with split flag removes batch", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodDelete, fmt.Sprintf("%s/items/%s?split=true", base, batch.Data[0].ID), "")
		require.Equal(t, http.StatusOK, rec.Code)
		var removed itemsEnvelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &removed))
		require.Len(t, removed.Data, 2)

		list := doJSON(t, router, http.MethodGet, base+"/items", "")
		require.Equal(t, http.StatusOK, list.Code)
		var left itemsEnvelope
		require.NoError(t, json.Unmarshal(list.Body.Bytes(), &left))
		require.Empty(t, left.Data)
	})

	t.Run("bad allocation value", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, base+"/items/split", `{
			"allocations": [{"friend": "Ana", "value": "abc"}]
		}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestBillEndpointErrors(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	owner := uuid.New()
	ownerRouter := newTestRouter(svc, ownerPrincipal(owner))

	rec := doJSON(t, ownerRouter, http.MethodPost, "/bills", `{"establishment":"Joe's"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created billEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	base := fmt.Sprintf("/bills/%s", created.Data.ID)

	t.Run("foreign bill is forbidden", func(t *testing.T) {
		strangerRouter := newTestRouter(svc, ownerPrincipal(uuid.New()))
		rec := doJSON(t, strangerRouter, http.MethodGet, base, "")
		require.Equal(t, http.StatusForbidden, rec.Code)
		var e errorEnvelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
		require.Equal(t, "FORBIDDEN", e.Error.Code)
	})

	t.Run("unknown bill is 404", func(t *testing.T) {
		rec := doJSON(t, ownerRouter, http.MethodGet, fmt.Sprintf("/bills/%s", uuid.New()), "")
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed bill id", func(t *testing.T) {
		rec := doJSON(t, ownerRouter, http.MethodGet, "/bills/not-a-uuid", "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid item value", func(t *testing.T) {
		rec := doJSON(t, ownerRouter, http.MethodPost, base+"/items", `{"friend":"Ana","value":"1,50"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing friend query", func(t *testing.T) {
		rec := doJSON(t, ownerRouter, http.MethodGet, base+"/consumption", "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("ownerless bill cannot settle", func(t *testing.T) {
		id := uuid.New()
		store.bills[id] = bill.Bill{ID: id, Establishment: "Joe's", Status: bill.StatusOpen}
		adminRouter := newTestRouter(svc, adminPrincipal())
		rec := doJSON(t, adminRouter, http.MethodGet, fmt.Sprintf("/bills/%s/calculate", id), "")
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		var e errorEnvelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
		require.Equal(t, "UNPROCESSABLE", e.Error.Code)
	})
}
