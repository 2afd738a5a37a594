package service

import (
	"testing"

	"docshare/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadCost(t *testing.T) {
	tests := []struct {
		name     string
		userID   int64
		doc      *model.Document
		wantCost int64
		wantErr  error
	}{
		{
			name:     "public document is free for anyone",
			userID:   2,
			doc:      &model.Document{UserID: 1, AccessType: model.AccessTypePublic},
			wantCost: 0,
		},
		{
			name:     "premium document costs credit_cost",
			userID:   2,
			doc:      &model.Document{UserID: 1, AccessType: model.AccessTypePremium, CreditCost: 7},
			wantCost: 7,
		},
		{
			name:     "premium document charges the owner too",
			userID:   1,
			doc:      &model.Document{UserID: 1, AccessType: model.AccessTypePremium, CreditCost: 7},
			wantCost: 7,
		},
		{
			name:    "private document denies non-owner",
			userID:  2,
			doc:     &model.Document{UserID: 1, AccessType: model.AccessTypePrivate},
			wantErr: ErrPrivateDocument,
		},
		{
			name:     "private document is free for the owner",
			userID:   1,
			doc:      &model.Document{UserID: 1, AccessType: model.AccessTypePrivate},
			wantCost: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cost, err := DownloadCost(tt.userID, tt.doc)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCost, cost)
		})
	}
}
