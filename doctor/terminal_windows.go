//go:build windows

package doctor

func SaveTerminal() {}

func resetTerminal() {}
