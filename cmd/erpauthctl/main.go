// Command erpauthctl signs in to the ERP backend from a terminal and
// inspects the resulting session and permissions.
package main

import "github.com/ispops/erpauth/cmd/erpauthctl/cmd"

func main() {
	cmd.Execute()
}
