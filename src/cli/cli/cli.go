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

// go/src/cli/cli/cli.go

// Package cli implements the hbsctl subcommands: keygen, sign, verify,
// detach, info and serve. Every command that touches a state file goes
// through the locked file sink, so two invocations cannot race on the
// same state.
package cli

import (
	"crypto/rand"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/sigstate-core/go/src/core/hbs/capacity"
	"github.com/sigstate-core/go/src/core/hbs/engine"
	"github.com/sigstate-core/go/src/core/hbs/manager"
	"github.com/sigstate-core/go/src/core/hbs/params"
	"github.com/sigstate-core/go/src/core/hbs/splitter"
	"github.com/sigstate-core/go/src/core/secure"
	"github.com/sigstate-core/go/src/http"
	logger "github.com/sigstate-core/go/src/log"
	"github.com/sigstate-core/go/src/storage"
)

// Run dispatches a subcommand and returns the process exit code.
func Run(args []string) int {
	if len(args) == 0 {
		usage()
		return 1
	}
	var err error
	switch args[0] {
	case "keygen":
		err = runKeygen(args[1:])
	case "sign":
		err = runSign(args[1:])
	case "verify":
		err = runVerify(args[1:])
	case "detach":
		err = runDetach(args[1:])
	case "info":
		err = runInfo(args[1:])
	case "serve":
		err = runServe(args[1:])
	case "help", "-h", "--help":
		usage()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", args[0])
		usage()
		return 1
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func usage() {
	fmt.Fprintf(os.Stderr, `hbsctl manages stateful hash-based signature keys.

Commands:
  keygen   Generate a key pair and its initial state
  sign     Sign a message, consuming one state leaf
  verify   Verify a signature against a public key
  detach   Carve part of a state into an independent state file
  info     Show a state file's capacity and status
  serve    Run the HTTP signer service over a state file

Supported variants:
  %s
`, strings.Join(params.Names(), "\n  "))
}

func runKeygen(args []string) error {
	var cfg keygenConfig
	fs := flag.NewFlagSet("keygen", flag.ExitOnError)
	fs.StringVar(&cfg.variant, "variant", params.XMSS10.Name, "Scheme variant to generate")
	fs.UintVar(&cfg.height, "height", 0, "HSS tree height (selects an HSS variant instead of --variant)")
	fs.UintVar(&cfg.winternitz, "winternitz", 16, "HSS Winternitz parameter, used with --height")
	fs.StringVar(&cfg.strategy, "strategy", "full", "Traversal strategy (full, cpu, memory)")
	fs.StringVar(&cfg.privFile, "priv", defaultPrivFile, "Private key output file")
	fs.StringVar(&cfg.pubFile, "pub", defaultPubFile, "Public key output file")
	fs.StringVar(&cfg.stateFile, "state", defaultStateFile, "State output file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	strat, err := params.StrategyFromString(cfg.strategy)
	if err != nil {
		return err
	}
	var p *params.Params
	if cfg.height > 0 {
		v, err := params.HSS(uint32(cfg.height), uint32(cfg.winternitz))
		if err != nil {
			return err
		}
		p, err = params.New(v, strat)
		if err != nil {
			return err
		}
	} else {
		p, err = params.NewByName(cfg.variant, strat)
		if err != nil {
			return err
		}
	}

	fmt.Printf("Generating %s key pair (strategy %s)...\n", p.Variant().Name, strat)
	eng := engine.New()
	pub, priv, st, err := eng.GenerateKeyPair(p, rand.Reader)
	if err != nil {
		return err
	}
	defer priv.Wipe()

	privBlob, err := eng.ExportPrivateKey(priv)
	if err != nil {
		return err
	}
	if err := secure.WithSecret(privBlob, func(b []byte) error {
		return storage.WriteFileAtomic(cfg.privFile, b, 0o600)
	}); err != nil {
		return fmt.Errorf("writing private key: %w", err)
	}

	pubBlob, err := eng.ExportPublicKey(pub)
	if err != nil {
		return err
	}
	if err := storage.WriteFileAtomic(cfg.pubFile, pubBlob, 0o644); err != nil {
		return fmt.Errorf("writing public key: %w", err)
	}

	sink, err := storage.NewFileSink(cfg.stateFile)
	if err != nil {
		return err
	}
	defer sink.Close()
	stBlob, err := eng.ExportState(st)
	if err != nil {
		return err
	}
	if err := sink.Persist(stBlob); err != nil {
		return err
	}

	fmt.Printf("Key fingerprint:      %s\n", fingerprint(pub.Root()))
	fmt.Printf("Signature capacity:   %d\n", p.TotalLeaves())
	fmt.Printf("Private key:          %s\n", cfg.privFile)
	fmt.Printf("Public key:           %s\n", cfg.pubFile)
	fmt.Printf("State:                %s\n", cfg.stateFile)
	return nil
}

func runSign(args []string) error {
	var cfg signConfig
	fs := flag.NewFlagSet("sign", flag.ExitOnError)
	fs.StringVar(&cfg.privFile, "priv", defaultPrivFile, "Private key file")
	fs.StringVar(&cfg.stateFile, "state", defaultStateFile, "State file")
	fs.StringVar(&cfg.sigFile, "sig", defaultSigFile, "Signature output file")
	fs.StringVar(&cfg.msgFile, "message", defaultMsgFile, "Message file to sign")
	fs.StringVar(&cfg.strategy, "strategy", "full", "Traversal strategy (full, cpu, memory)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sink, err := storage.NewFileSink(cfg.stateFile)
	if err != nil {
		return err
	}
	defer sink.Close()

	stBlob, err := sink.Load()
	if err != nil {
		return err
	}
	p, err := paramsFromStateBlob(stBlob, cfg.strategy)
	if err != nil {
		return err
	}
	eng := engine.New()
	st, err := eng.ImportState(p, stBlob)
	if err != nil {
		return err
	}
	priv, err := loadPrivateKey(eng, p, cfg.privFile)
	if err != nil {
		return err
	}
	defer priv.Wipe()

	digest, err := digestFile(cfg.msgFile)
	if err != nil {
		return err
	}

	mgr := manager.New(eng)
	sig, err := mgr.SignAndCommit(priv, st, digest, sink)
	if err != nil {
		return err
	}
	sigBlob, err := eng.ExportSignature(sig)
	if err != nil {
		return err
	}
	if err := storage.WriteFileAtomic(cfg.sigFile, sigBlob, 0o644); err != nil {
		return fmt.Errorf("writing signature: %w", err)
	}

	c := mgr.Capacity(st)
	fmt.Printf("Signed %s with leaf %d (%s)\n", cfg.msgFile, sig.LeafIndex(), p.Variant().Name)
	fmt.Printf("Signatures remaining: %d of %d\n", c.Remaining, c.Max)
	return nil
}

func runVerify(args []string) error {
	var cfg verifyConfig
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	fs.StringVar(&cfg.pubFile, "pub", defaultPubFile, "Public key file")
	fs.StringVar(&cfg.sigFile, "sig", defaultSigFile, "Signature file")
	fs.StringVar(&cfg.msgFile, "message", defaultMsgFile, "Message file to verify")
	fs.StringVar(&cfg.variant, "variant", params.XMSS10.Name, "Scheme variant of the key")
	if err := fs.Parse(args); err != nil {
		return err
	}

	p, err := params.NewByName(cfg.variant, params.StrategyFull)
	if err != nil {
		return err
	}
	eng := engine.New()

	pubBlob, err := os.ReadFile(cfg.pubFile)
	if err != nil {
		return fmt.Errorf("reading public key %s: %w", cfg.pubFile, err)
	}
	pub, err := eng.ImportPublicKey(p, pubBlob)
	if err != nil {
		return err
	}
	sigBlob, err := os.ReadFile(cfg.sigFile)
	if err != nil {
		return fmt.Errorf("reading signature %s: %w", cfg.sigFile, err)
	}
	sig, err := eng.ImportSignature(p, sigBlob)
	if err != nil {
		return err
	}
	digest, err := digestFile(cfg.msgFile)
	if err != nil {
		return err
	}

	ok, err := eng.Verify(pub, digest, sig)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("signature is NOT valid for %s", cfg.msgFile)
	}
	fmt.Printf("Signature is valid (%s, leaf %d)\n", p.Variant().Name, sig.LeafIndex())
	return nil
}

func runDetach(args []string) error {
	var cfg detachConfig
	fs := flag.NewFlagSet("detach", flag.ExitOnError)
	fs.StringVar(&cfg.privFile, "priv", defaultPrivFile, "Private key file")
	fs.StringVar(&cfg.stateFile, "state", defaultStateFile, "Parent state file")
	fs.StringVar(&cfg.detachedFile, "detached-state", defaultDetachedFile, "Detached state output file")
	fs.Uint64Var(&cfg.numSigs, "num-sigs", 0, "Number of signatures to detach")
	fs.StringVar(&cfg.strategy, "strategy", "full", "Traversal strategy (full, cpu, memory)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if cfg.numSigs == 0 {
		return fmt.Errorf("detach: --num-sigs must be greater than zero")
	}

	sink, err := storage.NewFileSink(cfg.stateFile)
	if err != nil {
		return err
	}
	defer sink.Close()

	stBlob, err := sink.Load()
	if err != nil {
		return err
	}
	p, err := paramsFromStateBlob(stBlob, cfg.strategy)
	if err != nil {
		return err
	}
	eng := engine.New()
	parent, err := eng.ImportState(p, stBlob)
	if err != nil {
		return err
	}
	priv, err := loadPrivateKey(eng, p, cfg.privFile)
	if err != nil {
		return err
	}
	defer priv.Wipe()

	split := splitter.New(eng)
	child, err := split.Detach(priv, parent, cfg.numSigs, sink)
	if err != nil {
		return err
	}

	childSink, err := storage.NewFileSink(cfg.detachedFile)
	if err != nil {
		return err
	}
	defer childSink.Close()
	childBlob, err := eng.ExportState(child)
	if err != nil {
		return err
	}
	if err := childSink.Persist(childBlob); err != nil {
		return err
	}

	tracker := capacity.NewTracker(eng)
	pc := tracker.Of(parent)
	fmt.Printf("Detached %d signatures into %s\n", cfg.numSigs, cfg.detachedFile)
	fmt.Printf("Parent remaining:     %d of %d\n", pc.Remaining, pc.Max)
	return nil
}

func runInfo(args []string) error {
	var cfg infoConfig
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	fs.StringVar(&cfg.stateFile, "state", defaultStateFile, "State file to inspect")
	if err := fs.Parse(args); err != nil {
		return err
	}

	blob, err := storage.LoadStateFile(cfg.stateFile)
	if err != nil {
		return err
	}
	p, err := paramsFromStateBlob(blob, "full")
	if err != nil {
		return err
	}
	eng := engine.New()
	st, err := eng.ImportState(p, blob)
	if err != nil {
		return err
	}
	tracker := capacity.NewTracker(eng)
	c := tracker.Of(st)

	fmt.Printf("State file:           %s\n", cfg.stateFile)
	fmt.Printf("Variant:              %s\n", p.Variant().Name)
	fmt.Printf("Status:               %s\n", tracker.StatusOf(st))
	fmt.Printf("Next leaf:            %d\n", st.NextLeaf())
	fmt.Printf("Signatures remaining: %d of %d\n", c.Remaining, c.Max)
	return nil
}

func runServe(args []string) error {
	var cfg serveConfig
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	fs.StringVar(&cfg.privFile, "priv", defaultPrivFile, "Private key file")
	fs.StringVar(&cfg.stateFile, "state", defaultStateFile, "State file")
	fs.StringVar(&cfg.addr, "addr", "127.0.0.1:8545", "Listen address")
	fs.StringVar(&cfg.strategy, "strategy", "full", "Traversal strategy (full, cpu, memory)")
	fs.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := logger.Init(cfg.debug); err != nil {
		return err
	}
	defer logger.Sync()

	sink, err := storage.NewFileSink(cfg.stateFile)
	if err != nil {
		return err
	}
	defer sink.Close()

	stBlob, err := sink.Load()
	if err != nil {
		return err
	}
	p, err := paramsFromStateBlob(stBlob, cfg.strategy)
	if err != nil {
		return err
	}
	eng := engine.New()
	st, err := eng.ImportState(p, stBlob)
	if err != nil {
		return err
	}
	priv, err := loadPrivateKey(eng, p, cfg.privFile)
	if err != nil {
		return err
	}
	defer priv.Wipe()

	srv := http.NewServer(cfg.addr, eng, priv, st, sink)
	return srv.Run()
}
