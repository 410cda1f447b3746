// MIT License
//
// Copyright (c) 2024 sigstate-core
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// go/src/cli/cli/types.go
package cli

// Default artifact paths shared by the subcommands.
const (
	defaultPrivFile     = "priv.key"
	defaultPubFile      = "pub.key"
	defaultStateFile    = "priv.state"
	defaultSigFile      = "sig.dat"
	defaultMsgFile      = "message.dat"
	defaultDetachedFile = "detached.state"
)

// keygenConfig holds the keygen subcommand flags.
type keygenConfig struct {
	variant    string
	height     uint
	winternitz uint
	strategy   string
	privFile   string
	pubFile    string
	stateFile  string
}

// signConfig holds the sign subcommand flags.
type signConfig struct {
	privFile  string
	stateFile string
	sigFile   string
	msgFile   string
	strategy  string
}

// verifyConfig holds the verify subcommand flags.
type verifyConfig struct {
	pubFile string
	sigFile string
	msgFile string
	variant string
}

// detachConfig holds the detach subcommand flags.
type detachConfig struct {
	privFile     string
	stateFile    string
	detachedFile string
	numSigs      uint64
	strategy     string
}

// infoConfig holds the info subcommand flags.
type infoConfig struct {
	stateFile string
}

// serveConfig holds the serve subcommand flags.
type serveConfig struct {
	privFile  string
	stateFile string
	addr      string
	strategy  string
	debug     bool
}
