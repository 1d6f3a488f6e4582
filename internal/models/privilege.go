package models

const PrivilegeExportReports = "reports.export"

type Privilege struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// KnownPrivileges lists the privileges that can be granted to users.
var KnownPrivileges = []Privilege{
	{Code: PrivilegeExportReports, Description: "Export task reports as spreadsheet or PDF"},
}

func IsKnownPrivilege(code string) bool {
	for _, p := range KnownPrivileges {
		if p.Code == code {
			return true
		}
	}
	return false
}
