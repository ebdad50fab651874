// Package pubship ships structured log records to a Google Cloud Pub/Sub
// topic, authenticating with a service-account key that is exchanged for
// an OAuth2 access token and refreshed on expiry.
//
// # Basic Usage
//
//	settings := pubship.DefaultSettings()
//	settings.Email = "svc@my-project.iam.gserviceaccount.com"
//	settings.PrivateKeyPath = "/etc/pubship/key.p12"
//	settings.Project = "my-project"
//	settings.Topic = "logs"
//
//	s, err := pubship.New(settings, source, pubship.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := s.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	<-s.Done()
//
// Records can also be published synchronously with [Shipper.Publish]; each
// call sends all records as a single Pub/Sub message.
//
// # Errors
//
// Configuration problems surface from [New] as errors matching
// [ErrInvalidConfig]. Publish failures are *AuthError or *PublishError;
// use [IsRetryable] to decide whether to retry.
//
// # Lifecycle States
//
// A Shipper is in one of [StateStopped], [StateStarting], [StateRunning],
// [StateStopping] or [StateCrashed]. Use [Shipper.Status] to query it.
package pubship
