package app

import (
	"github.com/charmbracelet/harmonica"

	"levelbar.klederson.com/internal/config"
)

// barSpring eases one bar's display height toward its level.
type barSpring struct {
	spring harmonica.Spring
	pos    float64
	vel    float64
}

func newBarSpring() *barSpring {
	return &barSpring{
		spring: harmonica.NewSpring(harmonica.FPS(config.TargetFPS), config.SpringFreq, config.SpringDamping),
	}
}

// Step advances one frame toward target and returns the clamped position.
func (s *barSpring) Step(target float64) float64 {
	s.pos, s.vel = s.spring.Update(s.pos, s.vel, target)
	if s.pos < 0 {
		s.pos, s.vel = 0, 0
	}
	if s.pos > 1 {
		s.pos = 1
	}
	return s.pos
}
