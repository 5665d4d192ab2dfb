// Package cmd provides all chunkops CLI commands.
//
// Commands are plain constructors returning *cli.Command, collected into an
// fx value group and assembled into the root application by Run. Commands
// that need project configuration receive it through an fx.In param struct;
// a nil *config.Config means no chunkops.yaml was found, which only the
// config-free commands (init, dev down, help) tolerate.
package cmd
