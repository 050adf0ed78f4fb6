package indicator

// Sleep/wake duty cycle. Short sleeps keep mean latency low; every
// MaxSleepCycles rounds a forced extended-wake window bounds the worst
// case, so the node is reachable at least once every
// MaxSleepCycles*(AwakeMs+SleepMs) even with zero traffic.
//
// Suspension is only ever entered from here, after the final-listen
// interval, so no other machine can be cut mid-transition: by the time
// the prepare wait elapses, every other wait in the system is a timestamp
// check that simply resumes against the later clock.

// pollSleep runs the duty-cycle scheduler for one tick. It owns the single
// blocking point in the whole system: the suspend call.
func (ind *Indicator) pollSleep(nowMs int64) {
	ind.mu.Lock()

	if !ind.preparing {
		// Awake. Decide which window we are in.
		if nowMs-ind.lastActivityMs < ind.cfg.PostCommandMs {
			// Post-command window: sleep suppressed, schedule reset.
			ind.nextSleepMs = ind.lastActivityMs + ind.cfg.PostCommandMs
			ind.sleepCycles = 0
			ind.mu.Unlock()
			return
		}
		if ind.extended {
			if nowMs-ind.extendedFromMs >= ind.cfg.ExtendedMs {
				println("Info: ending extended awake period")
				ind.extended = false
				ind.sleepCycles = 0
				ind.nextSleepMs = nowMs + 100 // head for sleep shortly
			}
			ind.mu.Unlock()
			return
		}
		if nowMs >= ind.nextSleepMs {
			println("Info: scanning briefly before sleep")
			ind.preparing = true
			ind.prepWait.Start(nowMs)
		}
		ind.mu.Unlock()
		return
	}

	// PreparingSleep: final listen. A frame arriving here resets the
	// schedule via touchLocked, which clears preparing.
	if !ind.prepWait.Elapsed(nowMs, ind.cfg.AwakeMs) {
		ind.mu.Unlock()
		return
	}
	ind.preparing = false
	ind.prepWait.Clear()

	// Capture the output-hold before the suspension resets peripheral
	// state; the held line keeps its level.
	active := ind.active
	if active >= 0 {
		ind.bank.Hold(active)
	}
	println("Info: entering light sleep for", ind.cfg.SleepMs, "ms")
	ind.mu.Unlock()

	wokeMs := ind.suspend(ind.cfg.SleepMs)

	// WakingUp: release holds, reassert the output by normal means, then
	// rebuild the transport from scratch, nothing of it survived.
	for i := 0; i < ind.bank.Count(); i++ {
		ind.bank.Release(i)
	}
	if active >= 0 {
		ind.bank.Set(active, true)
	}
	ind.rebuildTransport()

	ind.mu.Lock()
	ind.sleepCycles++
	if ind.sleepCycles >= ind.cfg.MaxSleepCycles {
		println("Info: forcing extended awake period after", ind.sleepCycles, "sleep cycles")
		ind.extended = true
		ind.extendedFromMs = wokeMs
		ind.sleepCycles = 0
	} else {
		ind.nextSleepMs = wokeMs + ind.cfg.AwakeMs
	}
	ind.mu.Unlock()
}

// rebuildTransport tears the radio down and brings it back: channel,
// callback, and the last known peer. Failure here is logged and absorbed;
// the next wake rebuilds again, and sends fail harmlessly in between.
func (ind *Indicator) rebuildTransport() {
	ind.radio.Deinit()
	if err := ind.radio.Init(ind.cfg.Channel); err != nil {
		println("Error: transport rebuild failed:", err.Error())
		return
	}
	ind.radio.OnReceive(ind.handleFrame)

	ind.mu.Lock()
	saved := ind.savedPeer
	ind.mu.Unlock()
	if !saved.IsZero() {
		if err := ind.radio.AddPeer(saved); err != nil {
			println("Error: saved peer re-add failed:", err.Error())
		} else {
			ind.mu.Lock()
			ind.regPeer = saved
			ind.mu.Unlock()
		}
	}
}
