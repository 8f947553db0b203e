package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func ptr[T any](v T) *T { return &v }

func Test_ListQuery_Offset(t *testing.T) {
	testCases := []struct {
		name     string
		query    ListQuery
		expected int
	}{
		{name: "first page", query: ListQuery{Page: 1, Limit: 10}, expected: 0},
		{name: "second page", query: ListQuery{Page: 2, Limit: 10}, expected: 10},
		{name: "large limit", query: ListQuery{Page: 3, Limit: 100}, expected: 200},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.query.Offset())
		})
	}
}

func Test_ListQuery_IsDefault(t *testing.T) {
	testCases := []struct {
		name     string
		query    ListQuery
		expected bool
	}{
		{name: "default query", query: DefaultListQuery(), expected: true},
		{name: "explicit defaults", query: ListQuery{Page: 1, Limit: 10}, expected: true},
		{name: "second page", query: ListQuery{Page: 2, Limit: 10}, expected: false},
		{name: "non-default limit", query: ListQuery{Page: 1, Limit: 20}, expected: false},
		{name: "category filter", query: ListQuery{Category: "fruit", Page: 1, Limit: 10}, expected: false},
		{name: "min price filter", query: ListQuery{MinPrice: ptr(5.0), Page: 1, Limit: 10}, expected: false},
		{name: "search filter", query: ListQuery{Search: "tomato", Page: 1, Limit: 10}, expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.query.IsDefault())
		})
	}
}

func Test_BuildFilter(t *testing.T) {
	testCases := []struct {
		name     string
		query    ListQuery
		expected bson.M
	}{
		{
			name:     "no filters",
			query:    DefaultListQuery(),
			expected: bson.M{},
		},
		{
			name:     "category only",
			query:    ListQuery{Category: "fruit", Page: 1, Limit: 10},
			expected: bson.M{"category": "fruit"},
		},
		{
			name:     "min price only",
			query:    ListQuery{MinPrice: ptr(10.0), Page: 1, Limit: 10},
			expected: bson.M{"price": bson.M{"$gte": 10.0}},
		},
		{
			name:     "max price only",
			query:    ListQuery{MaxPrice: ptr(20.0), Page: 1, Limit: 10},
			expected: bson.M{"price": bson.M{"$lte": 20.0}},
		},
		{
			name:  "price range and category compose",
			query: ListQuery{Category: "fruit", MinPrice: ptr(10.0), MaxPrice: ptr(20.0), Page: 1, Limit: 10},
			expected: bson.M{
				"category": "fruit",
				"price":    bson.M{"$gte": 10.0, "$lte": 20.0},
			},
		},
		{
			name:  "search matches name and description case-insensitively",
			query: ListQuery{Search: "tomato", Page: 1, Limit: 10},
			expected: bson.M{
				"$or": bson.A{
					bson.M{"name": bson.M{"$regex": "tomato", "$options": "i"}},
					bson.M{"description": bson.M{"$regex": "tomato", "$options": "i"}},
				},
			},
		},
		{
			name:  "search term is quoted, not interpreted",
			query: ListQuery{Search: "a.c*", Page: 1, Limit: 10},
			expected: bson.M{
				"$or": bson.A{
					bson.M{"name": bson.M{"$regex": `a\.c\*`, "$options": "i"}},
					bson.M{"description": bson.M{"$regex": `a\.c\*`, "$options": "i"}},
				},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, buildFilter(tc.query))
		})
	}
}
