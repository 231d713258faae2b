// Package common holds the types shared by the RPC server, client and
// transports: the Message protocol, the server and client configuration and
// the logger factory installed into dragonboat's logger package.
//
// Every request and response is a Message. Which fields are set depends on
// the MessageType, responses carry errors as text in Message.Err.
package common
