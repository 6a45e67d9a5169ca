/*
Package session connects remote participants to a game.

A Server accepts connections until the wanted number of participants logged in
or its connection deadline passes, and hands each authenticated connection out
as an invoke.Channel. A Client dials the server, logs in, and serves incoming
calls to a local participant implementation until the server says exit.

Authentication is pluggable through Authenticator; PasswordAuth checks
login/password pairs against a ports.CredentialStore.
*/
package session
