/*
Copyright © 2025 The context-translation authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "0.3.0"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "context-translation",
	Short: "Glossary-aware document translation",
	Long: `Translate DOCX documents and plain text with an IndicTrans2 model
(or Google Cloud / OpenAI backends) while enforcing a terminology glossary.

Glossary terms are masked with placeholders before the model sees the text
and restored with their authoritative target-language renderings afterwards,
so codes, proper nouns, and fixed official phrasing are never mistranslated.

Use "context-translation translate --help" for translation options.`,
	Version: version,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ./context-translation.yaml)")
}

// initConfig reads the optional config file and the environment.
// Flags override config values; config overrides environment defaults.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("context-translation")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("CONTEXT_TRANSLATION")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}
