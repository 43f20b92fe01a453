// Retrificator archives stale web applications deployed in a Tomcat
// container.
//
// An application is stale when its last recorded access, mined from the
// container's access logs, is older than the access age, or when its live
// package was deployed longer ago than the deploy age. Stale applications
// are archived by renaming "<name>.war" to "<name>.war.retro", so the
// container undeploys them while the package stays on disk.
//
// Usage:
//
//	# Run a single pass
//	retrificator run -t /opt/tomcat -r /var/lib/retrificator
//
//	# Show what a pass would do
//	retrificator run -t /opt/tomcat -r /var/lib/retrificator --dry-run
//
//	# Run passes on a schedule and on access log rotation
//	retrificator daemon --config /etc/retrificator/config.yaml
//
//	# Print the tracking state
//	retrificator state -r /var/lib/retrificator
package main

func main() {
	Execute()
}
