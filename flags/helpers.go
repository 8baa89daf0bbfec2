package flags

import (
	"os"

	cli "gopkg.in/urfave/cli.v1"
)

// NewApp builds a bare cli.App stamped with the build's git commit/date.
func NewApp(gitCommit, gitDate, usage string) *cli.App {
	app := cli.NewApp()
	app.Name = "wireweaver"
	app.HideVersion = gitCommit == "" && gitDate == ""
	app.Usage = usage
	app.Version = buildVersion(gitCommit, gitDate)
	app.Writer = os.Stdout
	return app
}

func buildVersion(gitCommit, gitDate string) string {
	version := "0.1.0"
	if gitCommit != "" {
		version += "-" + gitCommit
	}
	if gitDate != "" {
		version += " (" + gitDate + ")"
	}
	return version
}
