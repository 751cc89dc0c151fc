package realtime

import "strings"

type FeedQuery struct {
	Tables string `query:"tables" validate:"tablelist"`
}

func (q FeedQuery) tableList() []string {
	if q.Tables == "" {
		return nil
	}
	var tables []string
	for _, t := range strings.Split(q.Tables, ",") {
		tables = append(tables, strings.TrimSpace(t))
	}
	return tables
}
