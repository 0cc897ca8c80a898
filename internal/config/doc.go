// SPDX-License-Identifier: MPL-2.0

// Package config handles crewctl's application configuration using Viper
// with TOML as the file format.
//
// Configuration is loaded from ~/.config/crewctl/config.toml (or the XDG
// equivalent on Linux, ~/Library/Application Support/crewctl/config.toml on
// macOS, %APPDATA%\crewctl\config.toml on Windows). The file carries an
// executor worker concurrency cap, an SSH dial timeout, a preferred
// container engine, console colour settings, and task directory search
// paths. Only the search paths are read elsewhere (by the new command);
// the other settings are loaded and saved but nothing applies them.
package config
