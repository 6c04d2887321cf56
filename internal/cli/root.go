// Package cli 实现 recurctl：按需 sweep、目标重算、计划修复、outbox 重放和建表
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewRootCmd 构造命令树；factory 在命令真正执行时才连接依赖
func NewRootCmd(factory Factory, version string) *cobra.Command {
	root := &cobra.Command{
		Use:           "recurctl",
		Short:         "recurctl - operate the recurring generation and goal reconciliation engine",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(sweepCmd(factory))
	root.AddCommand(goalsCmd(factory))
	root.AddCommand(scheduleCmd(factory))
	root.AddCommand(outboxCmd(factory))
	root.AddCommand(dbCmd(factory))
	return root
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
