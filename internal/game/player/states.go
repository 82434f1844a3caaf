package player

import "github.com/cory-johannsen/spellbound/internal/game/input"

// Factory creates fresh player states.
type Factory struct {
	p *Player
}

// Playable returns a new Playable state.
func (f *Factory) Playable() *Playable { return &Playable{p: f.p} }

// Menu returns a new Menu state.
func (f *Factory) Menu() *Menu { return &Menu{p: f.p} }

// Dead returns a new Dead state.
func (f *Factory) Dead() *Dead { return &Dead{p: f.p} }

// Playable routes input to the player's skills.
type Playable struct {
	p     *Player
	unsub []func()
}

// Name returns "playable".
func (s *Playable) Name() string { return "playable" }

// Enter subscribes to key and menu events.
func (s *Playable) Enter() {
	in := s.p.env.Input
	s.unsub = []func(){
		in.Subscribe(input.KeyDown, s.p.onKeyDown),
		in.Subscribe(input.KeyUp, s.p.onKeyUp),
		in.Subscribe(input.MenuToggle, func(input.Event) {
			s.p.Machine().ChangeState(s.p.states.Menu())
		}),
	}
}

// Update does nothing; skills run from Player.Update.
func (s *Playable) Update() {}

// Exit unsubscribes and abandons held skills.
func (s *Playable) Exit() {
	for _, u := range s.unsub {
		u()
	}
	s.unsub = nil
	if s.p.primary != nil {
		s.p.primary.cancel()
	}
	if h := s.p.hover; h != nil && h.Hovering() {
		h.OnKeyUp()
	}
}

// Menu pauses the world and waits for the menu key.
type Menu struct {
	p     *Player
	unsub func()
}

// Name returns "menu".
func (s *Menu) Name() string { return "menu" }

// Enter opens the menu and stops time.
func (s *Menu) Enter() {
	s.unsub = s.p.env.Input.Subscribe(input.MenuToggle, func(input.Event) {
		s.p.Machine().ChangeState(s.p.states.Playable())
	})
	if s.p.env.Menu != nil {
		s.p.env.Menu.OpenMenu(true)
	}
	if s.p.env.Time != nil {
		s.p.env.Time.SetTimeScale(0)
	}
}

// Update does nothing.
func (s *Menu) Update() {}

// Exit closes the menu and restores time.
func (s *Menu) Exit() {
	s.unsub()
	s.unsub = nil
	if s.p.env.Menu != nil {
		s.p.env.Menu.OpenMenu(false)
	}
	if s.p.env.Time != nil {
		s.p.env.Time.SetTimeScale(1)
	}
}

// Dead is terminal.
type Dead struct {
	p *Player
}

// Name returns "dead".
func (s *Dead) Name() string { return "dead" }

// Enter stops every skill and disables the body.
func (s *Dead) Enter() {
	s.p.Release()
	s.p.Body().SetColliderEnabled(false)
	s.p.logger.Info("player died")
}

// Update does nothing.
func (s *Dead) Update() {}

// Exit does nothing.
func (s *Dead) Exit() {}
