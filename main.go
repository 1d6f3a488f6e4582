// @title        taskflow API
// @version      1.0
// @description  Task tracking with manager hierarchy visibility, review workflow and milestones.
// @BasePath     /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import "taskflow/cmd"

func main() {
	cmd.Execute()
}
