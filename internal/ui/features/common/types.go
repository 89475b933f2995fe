// Package common holds the page shell and the result rendering shared
// by the chat features.
package common

import "html/template"

// PageData is the data for the outer page shell. SSEPath is the
// endpoint the page morphs its content from on load; it is typed JS
// because it lands inside the data-on-load expression, which the
// template engine treats as script context.
type PageData struct {
	Title       string
	CurrentPath string
	SSEPath     template.JS
	IsDev       bool
}

// TableView is a formatted result table ready for templating.
type TableView struct {
	Headers   []string
	Rows      [][]string
	Truncated bool
}

// ChartView is a server-rendered SVG chart.
type ChartView struct {
	Type  string
	Title string
	SVG   template.HTML
}

// MapRegion is one colored cell of a regional map view.
type MapRegion struct {
	Code  string
	Value string
	Color string
}

// MapView lists regions with their choropleth bucket colors.
type MapView struct {
	ValueColumn string
	Regions     []MapRegion
}

// StatView is one column's descriptive statistics row.
type StatView struct {
	Column string
	Mean   string
	Median string
	StdDev string
	Min    string
	Max    string
}

// InsightView summarizes correlations and trends for display.
type InsightView struct {
	Stats        []StatView
	Correlations []string
	Trends       []string
}

// ResultView is everything rendered for one answered question.
type ResultView struct {
	Kind         string
	EmptyMessage string
	Table        *TableView
	Chart        *ChartView
	Map          *MapView
	Insights     InsightView
	RowCount     int
	DurationMS   int64
}
