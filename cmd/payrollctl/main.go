// Command payrollctl computes payroll lines and produces TSS artifacts from
// JSON files, without the HTTP server.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
