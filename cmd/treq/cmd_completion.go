package main

import (
	"flag"
	"fmt"
	"io"
)

func completionCmd(stdout io.Writer, args []string) error {
	fs := flag.NewFlagSet("completion", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return usageErrorf("%v", err)
	}
	if fs.NArg() < 1 {
		return usageErrorf("shell name is required (bash, zsh, or fish)")
	}

	switch shell := fs.Arg(0); shell {
	case "bash":
		fmt.Fprint(stdout, generateBashCompletion())
	case "zsh":
		fmt.Fprint(stdout, generateZshCompletion())
	case "fish":
		fmt.Fprint(stdout, generateFishCompletion())
	default:
		return usageErrorf("unsupported shell %q (use bash, zsh, or fish)", shell)
	}
	return nil
}

func generateBashCompletion() string {
	return `# bash completion for treq                               -*- shell-script -*-

_treq() {
    local cur prev words cword
    _init_completion || return

    local commands="run ls inspect import edit rename remove history completion version help"
    local methods="GET POST PUT DELETE HEAD PATCH"
    local global_flags="--timeout --proxy --insecure --log-level --no-history"
    local request_flags="--raw --url --method --save-as --body --verbose --json --offline"
    local shells="bash zsh fish"

    if [[ ${cword} -eq 1 ]]; then
        COMPREPLY=($(compgen -W "${commands} ${methods}" -- "${cur}"))
        return
    fi

    local command="${words[1]}"

    case "${prev}" in
        --output)
            COMPREPLY=($(compgen -W "text json junit" -- "${cur}"))
            return
            ;;
        --method)
            COMPREPLY=($(compgen -W "${methods}" -- "${cur}"))
            return
            ;;
        --timeout|--proxy|--log-level|--save-as|--url|--raw|--limit|--offset|--search|--status|--since|--until|--delete)
            return
            ;;
    esac

    if [[ "${cur}" == -* ]]; then
        case "${command}" in
            run)
                COMPREPLY=($(compgen -W "${global_flags} ${request_flags} --save --all --output" -- "${cur}"))
                ;;
            ls)
                COMPREPLY=($(compgen -W "${global_flags} --long" -- "${cur}"))
                ;;
            inspect)
                COMPREPLY=($(compgen -W "${global_flags} --json --curl" -- "${cur}"))
                ;;
            edit)
                COMPREPLY=($(compgen -W "${global_flags} --url --method --raw" -- "${cur}"))
                ;;
            history)
                COMPREPLY=($(compgen -W "${global_flags} --limit --offset --search --method --status --since --until --json --count --delete --clear" -- "${cur}"))
                ;;
            *)
                COMPREPLY=($(compgen -W "${global_flags} ${request_flags}" -- "${cur}"))
                ;;
        esac
        return
    fi

    case "${command}" in
        run|inspect|edit|rename|remove)
            COMPREPLY=($(compgen -W "$(treq ls 2>/dev/null)" -- "${cur}"))
            ;;
        completion)
            COMPREPLY=($(compgen -W "${shells}" -- "${cur}"))
            ;;
    esac
}

complete -F _treq treq
`
}

func generateZshCompletion() string {
	return `#compdef treq

# zsh completion for treq

_treq_saved() {
    local -a names
    names=(${(f)"$(treq ls 2>/dev/null)"})
    _describe -t saved 'saved requests' names
}

_treq() {
    local -a commands
    commands=(
        'run:Send one or more saved requests'
        'ls:List saved requests'
        'inspect:Show a saved request'
        'import:Save a curl command as a request'
        'edit:Change a saved request'
        'rename:Rename a saved request'
        'remove:Delete a saved request'
        'history:Show past submissions'
        'completion:Generate shell completion scripts'
        'version:Print version information'
        'help:Show help message'
        'GET:Send a GET request'
        'POST:Send a POST request'
        'PUT:Send a PUT request'
        'DELETE:Send a DELETE request'
        'HEAD:Send a HEAD request'
        'PATCH:Send a PATCH request'
    )

    local -a global_flags
    global_flags=(
        '--timeout[Request timeout]:timeout:'
        '--proxy[Proxy URL]:proxy url:'
        '--insecure[Skip TLS certificate verification]'
        '--log-level[Log level]:level:(debug info warn error)'
        '--no-history[Do not record this submission]'
    )

    _arguments -C \
        '1:command:->command' \
        '*::arg:->args'

    case $state in
        command)
            _describe -t commands 'treq commands' commands
            ;;
        args)
            case $words[1] in
                run)
                    _arguments $global_flags \
                        '--save[Write item changes back to the saved request]' \
                        '--all[Run every saved request]' \
                        '--output[Output format]:format:(text json junit)' \
                        '--raw[Use BODY verbatim as the request body]:body:' \
                        '--url[Replace the URL]:url:' \
                        '--method[Replace the method]:method:(GET POST PUT DELETE HEAD PATCH)' \
                        '--verbose[Print timing and size]' \
                        '*:saved request:_treq_saved'
                    ;;
                inspect|edit|rename|remove)
                    _arguments $global_flags \
                        '--json[Print as JSON]' \
                        '--curl[Print as a curl command]' \
                        '--url[Replace the URL]:url:' \
                        '--method[Replace the method]:method:(GET POST PUT DELETE HEAD PATCH)' \
                        '--raw[Use BODY verbatim as the request body]:body:' \
                        '*:saved request:_treq_saved'
                    ;;
                ls)
                    _arguments $global_flags '--long[Show method and URL]'
                    ;;
                history)
                    _arguments $global_flags \
                        '--limit[Maximum number of entries]:limit:' \
                        '--offset[Skip the most recent entries]:offset:' \
                        '--search[URL contains]:text:' \
                        '--method[Method]:method:(GET POST PUT DELETE HEAD PATCH)' \
                        '--status[Status code, 4xx or range]:status:' \
                        '--since[Newer than a duration ago or a date]:time:' \
                        '--until[Older than a duration ago or a date]:time:' \
                        '--json[Print entries as JSON]' \
                        '--count[Print the number of entries]' \
                        '--delete[Delete one entry]:id:' \
                        '--clear[Delete all entries]'
                    ;;
                completion)
                    _arguments '1:shell:(bash zsh fish)'
                    ;;
                *)
                    _arguments $global_flags \
                        '--raw[Use BODY verbatim as the request body]:body:' \
                        '--url[Replace the URL]:url:' \
                        '--method[Replace the method]:method:(GET POST PUT DELETE HEAD PATCH)' \
                        '--save-as[Save the request under NAME]:name:' \
                        '--body[Print only the response body]' \
                        '--verbose[Print timing and size]' \
                        '--json[Print the response as JSON]' \
                        '--offline[Print the request instead of sending it]'
                    ;;
            esac
            ;;
    esac
}

_treq "$@"
`
}

func generateFishCompletion() string {
	return `# fish completion for treq

complete -c treq -f

# Subcommands
complete -c treq -n '__fish_use_subcommand' -a run -d 'Send one or more saved requests'
complete -c treq -n '__fish_use_subcommand' -a ls -d 'List saved requests'
complete -c treq -n '__fish_use_subcommand' -a inspect -d 'Show a saved request'
complete -c treq -n '__fish_use_subcommand' -a import -d 'Save a curl command as a request'
complete -c treq -n '__fish_use_subcommand' -a edit -d 'Change a saved request'
complete -c treq -n '__fish_use_subcommand' -a rename -d 'Rename a saved request'
complete -c treq -n '__fish_use_subcommand' -a remove -d 'Delete a saved request'
complete -c treq -n '__fish_use_subcommand' -a history -d 'Show past submissions'
complete -c treq -n '__fish_use_subcommand' -a completion -d 'Generate shell completion scripts'
complete -c treq -n '__fish_use_subcommand' -a version -d 'Print version information'
complete -c treq -n '__fish_use_subcommand' -a help -d 'Show help message'
complete -c treq -n '__fish_use_subcommand' -a 'GET POST PUT DELETE HEAD PATCH' -d 'HTTP method'

# Global flags
complete -c treq -l timeout -d 'Request timeout' -r
complete -c treq -l proxy -d 'Proxy URL' -r
complete -c treq -l insecure -d 'Skip TLS certificate verification'
complete -c treq -l log-level -d 'Log level' -ra 'debug info warn error'
complete -c treq -l no-history -d 'Do not record this submission'

# Saved request names
complete -c treq -n '__fish_seen_subcommand_from run inspect edit rename remove' -a '(treq ls 2>/dev/null)' -d 'Saved request'

# run flags
complete -c treq -n '__fish_seen_subcommand_from run' -l save -d 'Write item changes back to the saved request'
complete -c treq -n '__fish_seen_subcommand_from run' -l all -d 'Run every saved request'
complete -c treq -n '__fish_seen_subcommand_from run' -l output -d 'Output format' -ra 'text json junit'

# request building flags
complete -c treq -n 'not __fish_seen_subcommand_from ls inspect import rename remove history completion' -l url -d 'Replace the URL' -r
complete -c treq -n 'not __fish_seen_subcommand_from ls inspect import rename remove history completion' -l method -d 'Replace the method' -ra 'GET POST PUT DELETE HEAD PATCH'
complete -c treq -n 'not __fish_seen_subcommand_from ls inspect import rename remove history completion' -l raw -d 'Use BODY verbatim as the request body' -r

# history flags
complete -c treq -n '__fish_seen_subcommand_from history' -l limit -d 'Maximum number of entries' -r
complete -c treq -n '__fish_seen_subcommand_from history' -l search -d 'Only entries whose URL contains this text' -r
complete -c treq -n '__fish_seen_subcommand_from history' -l offset -d 'Skip the most recent entries' -r
complete -c treq -n '__fish_seen_subcommand_from history' -l status -d 'Status code, 4xx or range' -r
complete -c treq -n '__fish_seen_subcommand_from history' -l since -d 'Newer than a duration ago or a date' -r
complete -c treq -n '__fish_seen_subcommand_from history' -l until -d 'Older than a duration ago or a date' -r
complete -c treq -n '__fish_seen_subcommand_from history' -l count -d 'Print the number of entries'
complete -c treq -n '__fish_seen_subcommand_from history' -l delete -d 'Delete one entry' -r
complete -c treq -n '__fish_seen_subcommand_from history' -l clear -d 'Delete all entries'

# completion - shell names
complete -c treq -n '__fish_seen_subcommand_from completion' -a 'bash zsh fish' -d 'Shell type'
`
}
