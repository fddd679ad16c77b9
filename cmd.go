package main

type Command struct {
	Version struct{} `cmd:"" help:"Print version information."`
	Backup  struct {
		Config   string `help:"config file path" short:"c" required:""`
		Database string `help:"run catalog database path" short:"d"`
		Site     string `arg:"" optional:"" help:"only back up the site with this label"`
	} `cmd:"" help:"Snapshot site files and dump site databases."`
	Restore struct {
		Config   string `help:"config file path" short:"c" required:""`
		Database string `help:"run catalog database path" short:"d"`
		Site     string `arg:"" help:"label of the site to restore"`
		Ref      string `arg:"" optional:"" help:"commit reference prefix, defaults to the latest snapshot"`
		Yes      bool   `help:"skip the confirmation prompt" short:"y"`
	} `cmd:"" help:"Restore a site to a recorded snapshot."`
	ListBackups struct {
		Config string `help:"config file path" short:"c" required:""`
		Site   string `arg:"" help:"label of the site"`
	} `cmd:"" name:"list-backups" help:"List the recorded snapshots of a site."`
	ListSites struct {
		Config string `help:"config file path" short:"c" required:""`
	} `cmd:"" name:"list-sites" help:"List the configured sites."`
	Runs struct {
		Config   string `help:"config file path" short:"c" required:""`
		Database string `help:"run catalog database path" short:"d"`
		Site     string `arg:"" optional:"" help:"only show runs of the site with this label"`
		Limit    int    `help:"maximum number of runs to show" default:"20"`
	} `cmd:"" help:"Show recent backup and restore runs."`
	Daemon struct {
		Config   string `help:"config file path" short:"c" required:""`
		Database string `help:"run catalog database path" short:"d"`
	} `cmd:"" help:"Run scheduled backups."`
}
