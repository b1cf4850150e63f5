package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"nemu-commission-api/internal/dto"
	"nemu-commission-api/internal/form"
	"nemu-commission-api/internal/response"
)

func setupRequestHandler(userID uuid.UUID, svc *MockRequestService) *gin.Engine {
	h := NewRequestHandler(svc, zap.NewNop())
	router := testRouter(userID)
	router.POST("/requests", h.SubmitRequest)
	router.GET("/requests/mine", h.ListMyRequests)
	router.GET("/requests/order/:orderId", h.GetRequestByOrderID)
	router.GET("/requests/:requestId", h.GetRequest)
	router.POST("/requests/:requestId/decision", h.DecideRequest)
	router.POST("/requests/:requestId/deliver", h.DeliverRequest)
	router.GET("/commissions/:commissionId/requests", h.ListCommissionRequests)
	return router
}

func TestRequestHandler_Submit(t *testing.T) {
	userID := uuid.New()
	requestID := uuid.New()
	svc := &MockRequestService{
		SubmitFunc: func(ctx context.Context, uid uuid.UUID, req *dto.SubmitRequestRequest) (*dto.SubmitRequestResponse, error) {
			assert.Equal(t, userID, uid)
			return &dto.SubmitRequestResponse{Success: true, RequestID: requestID, OrderID: "order-1"}, nil
		},
	}
	router := setupRequestHandler(userID, svc)

	w := doJSON(t, router, http.MethodPost, "/requests", dto.SubmitRequestRequest{
		FormID:       uuid.New(),
		CommissionID: uuid.New(),
		Content:      `{}`,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	env := decode(t, w)
	assert.True(t, env.Success)
	var data dto.SubmitRequestResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, requestID, data.RequestID)
	assert.Equal(t, "order-1", data.OrderID)
}

func TestRequestHandler_Submit_InvalidFields(t *testing.T) {
	fieldID := uuid.NewString()
	svc := &MockRequestService{
		SubmitFunc: func(ctx context.Context, uid uuid.UUID, req *dto.SubmitRequestRequest) (*dto.SubmitRequestResponse, error) {
			return nil, response.NewValidationError("Form answers are invalid",
				map[string]interface{}{"invalid_fields": form.InvalidSet{fieldID}})
		},
	}
	router := setupRequestHandler(uuid.New(), svc)

	w := doJSON(t, router, http.MethodPost, "/requests", dto.SubmitRequestRequest{
		FormID:       uuid.New(),
		CommissionID: uuid.New(),
		Content:      `{}`,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	env := decode(t, w)
	assert.False(t, env.Success)
	assert.Equal(t, response.ErrCodeValidation, env.Error.Code)
	invalid, ok := env.Error.Details["invalid_fields"].([]interface{})
	require.True(t, ok, "details should carry invalid_fields")
	assert.Equal(t, []interface{}{fieldID}, invalid)
}

func TestRequestHandler_Submit_BadInput(t *testing.T) {
	called := false
	svc := &MockRequestService{
		SubmitFunc: func(ctx context.Context, uid uuid.UUID, req *dto.SubmitRequestRequest) (*dto.SubmitRequestResponse, error) {
			called = true
			return nil, nil
		},
	}

	t.Run("missing body fields", func(t *testing.T) {
		w := doJSON(t, setupRequestHandler(uuid.New(), svc), http.MethodPost, "/requests", map[string]string{"content": "{}"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		w := doJSON(t, setupRequestHandler(uuid.Nil, svc), http.MethodPost, "/requests", dto.SubmitRequestRequest{
			FormID: uuid.New(), CommissionID: uuid.New(), Content: "{}",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	assert.False(t, called)
}

func TestRequestHandler_Decide(t *testing.T) {
	artistUserID := uuid.New()
	requestID := uuid.New()

	tests := []struct {
		name       string
		path       string
		body       interface{}
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "accept",
			path:       "/requests/" + requestID.String() + "/decision",
			body:       map[string]bool{"accepted": true},
			wantStatus: http.StatusOK,
		},
		{
			name:       "reject explicitly false",
			path:       "/requests/" + requestID.String() + "/decision",
			body:       map[string]bool{"accepted": false},
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing decision",
			path:       "/requests/" + requestID.String() + "/decision",
			body:       map[string]string{},
			wantStatus: http.StatusBadRequest,
			wantCode:   response.ErrCodeValidation,
		},
		{
			name:       "invalid request id",
			path:       "/requests/not-a-uuid/decision",
			body:       map[string]bool{"accepted": true},
			wantStatus: http.StatusBadRequest,
			wantCode:   response.ErrCodeValidation,
		},
		{
			name:       "already decided",
			path:       "/requests/" + requestID.String() + "/decision",
			body:       map[string]bool{"accepted": true},
			err:        response.NewConflictError("Request already decided", ""),
			wantStatus: http.StatusConflict,
			wantCode:   response.ErrCodeConflict,
		},
		{
			name:       "provider failure",
			path:       "/requests/" + requestID.String() + "/decision",
			body:       map[string]bool{"accepted": true},
			err:        response.NewExternalServiceError("Failed to create invoice", "stripe down"),
			wantStatus: http.StatusBadGateway,
			wantCode:   response.ErrCodeExternalService,
		},
		{
			name:       "not the artist",
			path:       "/requests/" + requestID.String() + "/decision",
			body:       map[string]bool{"accepted": true},
			err:        response.NewForbiddenError("Only the commission's artist can decide", ""),
			wantStatus: http.StatusForbidden,
			wantCode:   response.ErrCodeForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotAccepted *bool
			svc := &MockRequestService{
				DecideFunc: func(ctx context.Context, uid, rid uuid.UUID, accepted bool) error {
					assert.Equal(t, artistUserID, uid)
					assert.Equal(t, requestID, rid)
					gotAccepted = &accepted
					return tt.err
				},
			}
			w := doJSON(t, setupRequestHandler(artistUserID, svc), http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			env := decode(t, w)
			if tt.wantCode != "" {
				assert.False(t, env.Success)
				assert.Equal(t, tt.wantCode, env.Error.Code)
				return
			}
			assert.True(t, env.Success)
			require.NotNil(t, gotAccepted)
			assert.Equal(t, tt.body.(map[string]bool)["accepted"], *gotAccepted)
		})
	}
}

func TestRequestHandler_InternalErrorHidesDetails(t *testing.T) {
	svc := &MockRequestService{
		DeliverFunc: func(ctx context.Context, uid, rid uuid.UUID) error {
			return response.NewAppError(response.ErrCodeInternal, "Failed to update request", "pq: connection refused")
		},
	}
	w := doJSON(t, setupRequestHandler(uuid.New(), svc), http.MethodPost, "/requests/"+uuid.NewString()+"/deliver", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	env := decode(t, w)
	assert.Equal(t, response.ErrCodeInternal, env.Error.Code)
	assert.Nil(t, env.Error.Details)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestRequestHandler_Reads(t *testing.T) {
	userID := uuid.New()
	requestID := uuid.New()
	commissionID := uuid.New()
	svc := &MockRequestService{
		GetRequestFunc: func(ctx context.Context, uid, rid uuid.UUID) (*dto.RequestResponse, error) {
			if rid != requestID {
				return nil, response.NewNotFoundError("Request not found", "")
			}
			return &dto.RequestResponse{ID: rid, UserID: uid}, nil
		},
		GetRequestByOrderIDFunc: func(ctx context.Context, uid uuid.UUID, orderID string) (*dto.RequestResponse, error) {
			assert.Equal(t, "order-42", orderID)
			return &dto.RequestResponse{ID: requestID, OrderID: orderID}, nil
		},
		ListMineFunc: func(ctx context.Context, uid uuid.UUID) ([]*dto.RequestResponse, error) {
			return []*dto.RequestResponse{{ID: requestID}}, nil
		},
		ListByCommissionFunc: func(ctx context.Context, uid, cid uuid.UUID) ([]*dto.RequestResponse, error) {
			assert.Equal(t, commissionID, cid)
			return []*dto.RequestResponse{{ID: requestID}, {ID: uuid.New()}}, nil
		},
	}
	router := setupRequestHandler(userID, svc)

	w := doJSON(t, router, http.MethodGet, "/requests/"+requestID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/requests/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodGet, "/requests/order/order-42", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var byOrder dto.RequestResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &byOrder))
	assert.Equal(t, "order-42", byOrder.OrderID)

	w = doJSON(t, router, http.MethodGet, "/requests/mine", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mine []dto.RequestResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &mine))
	assert.Len(t, mine, 1)

	w = doJSON(t, router, http.MethodGet, "/commissions/"+commissionID.String()+"/requests", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed []dto.RequestResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &listed))
	assert.Len(t, listed, 2)
}
