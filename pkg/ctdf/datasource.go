package ctdf

// DataSource records where a set of records came from.
type DataSource struct {
	OriginalFormat string `groups:"internal"` // eg. json, csv, yaml
	Provider       string `groups:"internal"`
	Dataset        string `groups:"internal"`
	Identifier     string `groups:"internal"`
}
