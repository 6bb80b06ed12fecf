package main

import (
	"github.com/dougsko/trx8/pkg/logging"
	"github.com/eiannone/keyboard"
)

// keyAction is what one terminal key does to the radio
type keyAction struct {
	code      int // keypad code, or -1
	pulses    int64
	direction int
	quit      bool
}

// terminalKey maps the terminal to the front panel. Digits and a/b are
// keypad codes 0..11, arrows turn the encoder and s saves.
func terminalKey(char rune, key keyboard.Key) (keyAction, bool) {
	switch {
	case key == keyboard.KeyCtrlC || char == 'q' || char == 'Q':
		return keyAction{code: -1, quit: true}, true
	case char >= '0' && char <= '9':
		return keyAction{code: int(char - '0')}, true
	case char == 'a' || char == 'A':
		return keyAction{code: 10}, true
	case char == 'b' || char == 'B':
		return keyAction{code: 11}, true
	case char == 's' || char == 'S':
		return keyAction{code: 4}, true
	}

	switch key {
	case keyboard.KeyArrowUp, keyboard.KeyArrowRight:
		return keyAction{code: -1, pulses: 1, direction: 1}, true
	case keyboard.KeyArrowDown, keyboard.KeyArrowLeft:
		return keyAction{code: -1, pulses: 1, direction: -1}, true
	case keyboard.KeyPgup:
		return keyAction{code: -1, pulses: 10, direction: 1}, true
	case keyboard.KeyPgdn:
		return keyAction{code: -1, pulses: 10, direction: -1}, true
	}
	return keyAction{}, false
}

// startKeyboard puts the terminal in raw mode and feeds key presses into
// the engine until the daemon stops
func (d *TRXDaemon) startKeyboard() error {
	events, err := keyboard.GetKeys(16)
	if err != nil {
		return err
	}

	logging.Info("keyboard", "terminal input enabled (digits: keys, arrows: tune, q: quit)")

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer keyboard.Close()

		for {
			select {
			case <-d.ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				if ev.Err != nil {
					logging.Warnf("keyboard", "read error: %v", ev.Err)
					return
				}
				d.applyKey(ev.Rune, ev.Key)
			}
		}
	}()
	return nil
}

func (d *TRXDaemon) applyKey(char rune, key keyboard.Key) {
	action, ok := terminalKey(char, key)
	if !ok {
		return
	}

	switch {
	case action.quit:
		d.requestQuit()
	case action.code >= 0:
		if !d.coreEngine.Keys().Push(action.code) {
			logging.Warnf("keyboard", "key queue full, dropped key %d", action.code)
		}
	case action.pulses > 0:
		d.coreEngine.Monitor().Inject(action.pulses, action.direction)
	}
}
