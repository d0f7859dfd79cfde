package commands

import (
	"context"
	"errors"
	"fmt"
	"github.com/shirou/gopsutil/cpu"
	"log/slog"
	"redditslacker/internal/app/infrastructure/config"
	"redditslacker/internal/app/ports"
	"runtime"
	"strings"
	"time"
)

func (s *Service) configCommand(_ context.Context, cmd ports.SlashCommand, args []string) (ports.Message, error) {
	if len(args) != 2 {
		return ports.NewMessage(fmt.Sprintf("Usage: /rsconfig [name] [value]. Settings: %s.",
			strings.Join(config.SettingNames(), ", "))), nil
	}

	err := s.settings.Set(args[0], args[1])
	switch {
	case err == nil:
		s.log.Info("Configuration updated", slog.String("name", args[0]), slog.String("value", args[1]), slog.String("by", cmd.UserName))
		return configOK, nil
	case errors.Is(err, config.ErrUnknownSetting):
		return configNF, err
	default:
		return ports.Notice(ports.ColorDanger, err.Error()), err
	}
}

func (s *Service) pingCommand(_ context.Context, _ ports.SlashCommand, _ []string) (ports.Message, error) {
	uptime := time.Since(s.started)

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	percent, _ := cpu.Percent(0, false)
	if len(percent) == 0 {
		percent = append(percent, 0)
	}

	return ports.NewMessage(fmt.Sprintf("Bot running for %v • CPU %.2f%% • memory %v MB",
		uptime.Truncate(time.Second), percent[0], m.Sys/1024/1024)), nil
}
