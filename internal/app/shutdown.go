package app

// Shutdown performs graceful shutdown of all components.
// It stops the application in the following order:
//  1. Stops the scheduler so no new reports are queued
//  2. Stops the gateway so no new messages arrive
//  3. Cancels the application context and waits for the engine and delivery loops
//  4. Stops the message bus
//  5. Closes the activity ledger
//
// The method is thread-safe and can be called from multiple goroutines.
func (a *App) Shutdown() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.started {
		return nil
	}

	if a.scheduler != nil {
		if err := a.scheduler.Stop(); err != nil {
			a.logger.Error("Failed to stop scheduler", err)
		}
	}

	if a.gateway != nil {
		if err := a.gateway.Stop(); err != nil {
			a.logger.Error("Failed to stop gateway", err)
		}
	}

	a.cancel()
	a.wg.Wait()

	var busErr error
	if a.messageBus != nil {
		busErr = a.messageBus.Stop()
		if busErr != nil {
			a.logger.Error("Failed to stop message bus", busErr)
		}
	}

	var ledgerErr error
	if a.ledger != nil {
		ledgerErr = a.ledger.Close()
		if ledgerErr != nil {
			a.logger.Error("Failed to close activity storage", ledgerErr)
		}
	}

	a.started = false
	a.logger.Info("Application shutdown complete")

	if busErr != nil {
		return busErr
	}
	return ledgerErr
}
