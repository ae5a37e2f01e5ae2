package gql

import (
	"context"

	genqlientgraphql "github.com/Khan/genqlient/graphql"
)

type ContentEntry struct {
	Id          string     `json:"id"`
	Collection  string     `json:"collection"`
	Title       *string    `json:"title"`
	Date        *string    `json:"date"`
	Description *string    `json:"description"`
	Tags        []string   `json:"tags"`
	Content     *string    `json:"content"`
	Fields      JSONObject `json:"fields"`
}

type ContentEntryResponse struct {
	Entry *ContentEntry `json:"entry"`
}

type ContentEntriesPage struct {
	Items       []ContentEntry `json:"items"`
	HasPrevious bool           `json:"hasPrevious"`
	Previous    *string        `json:"previous"`
	HasNext     bool           `json:"hasNext"`
	Next        *string        `json:"next"`
}

type ContentEntriesResponse struct {
	Entries *ContentEntriesPage `json:"entries"`
}

type __ContentEntryInput struct {
	Collection string `json:"collection"`
	Id         string `json:"id"`
}

type __ContentEntriesInput struct {
	Collection string  `json:"collection"`
	Limit      int     `json:"limit"`
	After      *string `json:"after"`
}

const entryFields = `
	id
	collection
	title
	date
	description
	tags
	content
	fields
`

// The operation sent by ContentEntryByID.
const ContentEntryByID_Operation = `
query ContentEntryByID ($collection: String!, $id: String!) {
	entry(collection: $collection, id: $id) {` + entryFields + `}
}
`

func ContentEntryByID(
	ctx_ context.Context,
	client_ genqlientgraphql.Client,
	collection string,
	id string,
) (data_ *ContentEntryResponse, err_ error) {
	req_ := &genqlientgraphql.Request{
		OpName: "ContentEntryByID",
		Query:  ContentEntryByID_Operation,
		Variables: &__ContentEntryInput{
			Collection: collection,
			Id:         id,
		},
	}

	data_ = &ContentEntryResponse{}
	resp_ := &genqlientgraphql.Response{Data: data_}

	err_ = client_.MakeRequest(ctx_, req_, resp_)

	return data_, err_
}

// The operation sent by ContentEntries.
const ContentEntries_Operation = `
query ContentEntries ($collection: String!, $limit: Int!, $after: String) {
	entries(collection: $collection, limit: $limit, after: $after) {
		items {` + entryFields + `}
		hasPrevious
		previous
		hasNext
		next
	}
}
`

func ContentEntries(
	ctx_ context.Context,
	client_ genqlientgraphql.Client,
	collection string,
	limit int,
	after *string,
) (data_ *ContentEntriesResponse, err_ error) {
	req_ := &genqlientgraphql.Request{
		OpName: "ContentEntries",
		Query:  ContentEntries_Operation,
		Variables: &__ContentEntriesInput{
			Collection: collection,
			Limit:      limit,
			After:      after,
		},
	}

	data_ = &ContentEntriesResponse{}
	resp_ := &genqlientgraphql.Response{Data: data_}

	err_ = client_.MakeRequest(ctx_, req_, resp_)

	return data_, err_
}
