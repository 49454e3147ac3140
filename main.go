package main

import "github.com/Tiliavir/gitlab-time-sync/cmd"

func main() {
	cmd.Execute()
}
