package models

type ButtonColors struct {
	Primary   string `json:"primary" yaml:"primary"`
	Secondary string `json:"secondary" yaml:"secondary"`
	Success   string `json:"success" yaml:"success"`
	Warning   string `json:"warning" yaml:"warning"`
	Danger    string `json:"danger" yaml:"danger"`
}

// AppSettings is the admin-editable UI and report configuration.
type AppSettings struct {
	Theme         string       `json:"theme"`
	Buttons       ButtonColors `json:"buttons"`
	ReportColumns []string     `json:"report_columns"`
}
