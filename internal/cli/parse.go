package cli

import (
	"errors"
	"flag"
	"os"
)

func parseListArgs(args []string) (listOptions, error) {
	listFS := flag.NewFlagSet("list", flag.ContinueOnError)
	listFS.SetOutput(os.Stderr)

	var opts listOptions
	listFS.BoolVar(&opts.All, "all", false, "follow continuation tokens across every page")

	if err := listFS.Parse(args); err != nil {
		return listOptions{}, err
	}
	if len(listFS.Args()) != 0 {
		return listOptions{}, errors.New("usage: bucketgate list [--all]")
	}
	return opts, nil
}

func parseUploadArgs(args []string) (uploadOptions, string, string, error) {
	uploadFS := flag.NewFlagSet("upload", flag.ContinueOnError)
	uploadFS.SetOutput(os.Stderr)

	var opts uploadOptions
	uploadFS.BoolVar(&opts.Public, "public", false, "write with public-read access and return the public URL")
	uploadFS.BoolVar(&opts.Replace, "replace", false, "overwrite the object when it already exists")

	if err := uploadFS.Parse(args); err != nil {
		return uploadOptions{}, "", "", err
	}
	rest := uploadFS.Args()
	if len(rest) != 2 {
		return uploadOptions{}, "", "", errors.New("usage: bucketgate upload [--public] [--replace] <name> <file>")
	}
	return opts, rest[0], rest[1], nil
}

func parseNameArg(command string, args []string) (string, error) {
	if len(args) != 1 {
		return "", errors.New("usage: bucketgate " + command + " <name>")
	}
	return args[0], nil
}
