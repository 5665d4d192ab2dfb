package cmd

import "go.uber.org/fx"

var Module = fx.Module("cli",
	fx.Provide(
		fx.Annotate(chunks, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(dev, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(initCmd, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(run, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(verify, fx.ResultTags(`group:"commands"`)),
	),
	fx.Invoke(Run),
)
