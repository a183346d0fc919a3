package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gigwork/instantjob/internal/api/model"
)

func TestCompetingApplicants(t *testing.T) {
	tests := []struct {
		name       string
		apps       []model.Application
		acceptedID int64
		want       []int64
	}{
		{
			name:       "no applications",
			acceptedID: 101,
			want:       nil,
		},
		{
			name: "accepted applicant is excluded",
			apps: []model.Application{
				{ID: 101, EmployeeID: 7, Status: "applied"},
			},
			acceptedID: 101,
			want:       nil,
		},
		{
			name: "still-applied competitors are included",
			apps: []model.Application{
				{ID: 101, EmployeeID: 7, Status: "applied"},
				{ID: 102, EmployeeID: 8, Status: "applied"},
				{ID: 103, EmployeeID: 9, Status: "applied"},
			},
			acceptedID: 101,
			want:       []int64{8, 9},
		},
		{
			name: "terminal competitors are excluded",
			apps: []model.Application{
				{ID: 101, EmployeeID: 7, Status: "applied"},
				{ID: 102, EmployeeID: 8, Status: "cancelled"},
				{ID: 103, EmployeeID: 9, Status: "declined"},
				{ID: 104, EmployeeID: 10, Status: "applied"},
			},
			acceptedID: 101,
			want:       []int64{10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, competingApplicants(tt.apps, tt.acceptedID))
		})
	}
}
