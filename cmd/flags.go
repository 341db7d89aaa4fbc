package cmd

import (
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func tablesFromConfig(key string) []string {
	return normalizeTables(viper.GetStringSlice(key))
}

func normalizeTables(values []string) []string {
	result := lo.FilterMap(values, func(value string, _ int) (string, bool) {
		name := strings.TrimSpace(value)
		return strings.ToLower(name), name != ""
	})
	if len(result) == 0 {
		return nil
	}
	return result
}

// normalizeTags trims filter values and drops blanks. Case is kept: tags are matched verbatim.
func normalizeTags(values []string) []string {
	result := lo.FilterMap(values, func(value string, _ int) (string, bool) {
		tag := strings.TrimSpace(value)
		return tag, tag != ""
	})
	if len(result) == 0 {
		return nil
	}
	return result
}

func bindFlagToViper(key string, flag *pflag.Flag) {
	if flag == nil {
		return
	}
	cobra.CheckErr(viper.BindPFlag(key, flag))
}
