// Package process runs the node's maintenance entry point as a child process.
//
// When a node is told to enter maintenance mode it stops its control loop
// and hands the device to an operator-configured program (for example a
// remote shell or a firmware tool). The Manager starts that program in its
// own process group, forwards its output to the log and waits for it.
//
// Example usage:
//
//	mgr := process.NewManager(process.MaintenanceConfig(settings.Maintenance, clientID))
//	mgr.SetLogger(logger)
//	if err := mgr.Run(ctx); err != nil {
//	    return err
//	}
package process
