// Package marketplace contains the typed resource clients for listings and bids.
//
// Every call builds a re-invokable request and hands it to a Session, which attaches the access
// token and re-authenticates once on 401/403. Non-OK results are returned as *api.Error.
package marketplace
